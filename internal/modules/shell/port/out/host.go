package out

import "bark/internal/modules/shell/domain"

// Host is the PTY attachment of the interactive shell child. One reader
// goroutine feeds Messages; writes go straight to the child's stdin.
type Host interface {
	Write(p []byte) (int, error)
	// Emit pushes a synthesized message (an InputTracked echo, a capture
	// result) onto the same channel the reader uses.
	Emit(msg domain.Message)
	Messages() <-chan domain.Message
	// SetVisible routes raw PTY bytes to the real stdout while true.
	SetVisible(visible bool)
	// SetSuppressOutput drops reader lines instead of channeling them.
	SetSuppressOutput(suppress bool)
	Resize(cols, rows int) error
	Alive() bool
	// Shutdown kills the child and releases the PTY without joining the
	// reader; blocked PTY reads may never unblock.
	Shutdown()
}

// Forwarder runs the visible-mode loop: raw stdin bytes go to write until
// the toggle hotkey, stdin EOF, or the shell dying ends it. resize is
// called when the terminal size changes.
type Forwarder interface {
	Run(write func([]byte) error, alive func() bool, resize func(cols, rows int)) error
}
