package internal

import "errors"

// ErrSilence tells the root command that the failure has already been
// reported to the user and must not be logged a second time.
var ErrSilence = errors.New("silent error")
