// Package remote implements the wire protocol between the application and
// the privileged helper process: CBOR request/response envelopes over a
// unix-domain socket, a client that exposes the protocol as fsops.FileOps,
// and the helper-side serve loop.
package remote

import (
	"io/fs"

	"github.com/liftfs/liftfs/internal/fsops"
)

const (
	// ServiceName identifies the helper service during the handshake. A
	// hello carrying any other value (or none) is rejected as a null
	// binding.
	ServiceName = "liftfs.helper"

	// ProtocolVersion is bumped on incompatible envelope changes.
	ProtocolVersion = 1
)

// Operation names carried in Request.Op.
const (
	OpRead     = "read"
	OpWrite    = "write"
	OpStat     = "stat"
	OpList     = "list"
	OpRemove   = "remove"
	OpRename   = "rename"
	OpChmod    = "chmod"
	OpShutdown = "shutdown"
)

// Error kinds carried in Response.ErrKind so failure classification
// survives the wire. Anything else is an unclassified failure.
const (
	KindPermission = "permission"
	KindNotFound   = "not-found"
)

// Hello is sent by the helper immediately after connecting, before any
// request is accepted.
type Hello struct {
	Service  string `cbor:"service"`
	Version  int    `cbor:"version"`
	PID      int    `cbor:"pid"`
	EUID     int    `cbor:"euid"`
	Elevated bool   `cbor:"elevated"`
}

// Request is one operation sent to the helper.
type Request struct {
	ID    string `cbor:"id"`
	Op    string `cbor:"op"`
	Path  string `cbor:"path,omitempty"`
	Path2 string `cbor:"path2,omitempty"`
	Data  []byte `cbor:"data,omitempty"`
	Mode  uint32 `cbor:"mode,omitempty"`
}

// Response answers exactly one Request, matched by ID.
type Response struct {
	ID      string           `cbor:"id"`
	OK      bool             `cbor:"ok"`
	Error   string           `cbor:"error,omitempty"`
	ErrKind string           `cbor:"err_kind,omitempty"`
	Data    []byte           `cbor:"data,omitempty"`
	Info    *fsops.FileInfo  `cbor:"info,omitempty"`
	Entries []fsops.FileInfo `cbor:"entries,omitempty"`
}

// OpError is a helper-side failure reported back to the caller. Unwrap
// maps the wire error kind onto the standard sentinel errors so
// errors.Is-based classification treats remote failures like local ones.
type OpError struct {
	Op      string
	Path    string
	Kind    string
	Message string
}

func (e *OpError) Error() string {
	return e.Message
}

func (e *OpError) Unwrap() error {
	switch e.Kind {
	case KindPermission:
		return fs.ErrPermission
	case KindNotFound:
		return fs.ErrNotExist
	}
	return nil
}
