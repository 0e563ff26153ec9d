// Package privilege answers two questions about the current host: whether
// the calling process is itself running elevated, and whether privilege
// elevation through an external command is available at all.
package privilege
