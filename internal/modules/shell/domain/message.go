// Package domain holds the pure logic of the interactive shell host: line
// parsing, input reconstruction, capture filtering, and per-shell command
// syntax. Everything here is side-effect free; the PTY lives in the
// adapter.
package domain

// Message is what the reader and writer deliver to the event loop.
type Message interface{ shellMessage() }

// OutputLine is a line read from the PTY, trailing CR/LF already removed.
// Subject to heuristic filtering when drained after visible mode.
type OutputLine struct{ Text string }

// InputTracked is a command line reconstructed from typed keystrokes.
// Authoritative: the event loop never filters these.
type InputTracked struct{ Text string }

// ShellExited reports EOF from the shell child.
type ShellExited struct{}

func (OutputLine) shellMessage()   {}
func (InputTracked) shellMessage() {}
func (ShellExited) shellMessage()  {}
