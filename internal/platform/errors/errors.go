package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTransportClosed   = errors.New("plugin transport closed")
	ErrEmptyResponse     = errors.New("empty response from plugin")
	ErrNoSession         = errors.New("no open session")
	ErrShellExited       = errors.New("interactive shell exited")
	ErrInstanceRunning   = errors.New("another instance is running")
	ErrOperationCanceled = errors.New("operation cancelled")
)
