//go:build unix

package out

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	shellout "bark/internal/modules/shell/port/out"
)

// kittyCtrlO is the Kitty keyboard protocol encoding of Ctrl+O.
var kittyCtrlO = []byte("\x1b[111;5u")

// StdinForwarder is the visible-mode input pump: raw termios, 50 ms poll,
// bytes straight to the PTY. The toggle hotkey ends the loop without being
// forwarded.
type StdinForwarder struct{}

func NewStdinForwarder() shellout.Forwarder { return &StdinForwarder{} }

func (f *StdinForwarder) Run(write func([]byte) error, alive func() bool, resize func(cols, rows int)) error {
	stdinFd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(stdinFd, oldState)

	lastCols, lastRows, _ := term.GetSize(int(os.Stdout.Fd()))
	resize(lastCols, lastRows)

	buf := make([]byte, 4096)
	for {
		if !alive() {
			return nil
		}
		// Full-screen programs inside the shell need PTY resizes too.
		if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if cols != lastCols || rows != lastRows {
				lastCols, lastRows = cols, rows
				resize(cols, rows)
			}
		}

		fds := []unix.PollFd{{Fd: int32(stdinFd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, 50)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("poll stdin: %w", err)
		}
		if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
			continue
		}
		read, err := unix.Read(stdinFd, buf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("read stdin: %w", err)
		}
		if read == 0 {
			return nil
		}
		data := buf[:read]
		if bytes.IndexByte(data, 0x0F) >= 0 || bytes.Contains(data, kittyCtrlO) {
			return nil
		}
		if err := write(data); err != nil {
			return err
		}
	}
}
