package in

import (
	"io"

	"bark/internal/modules/shell/domain"
)

// Usecase is the surface the TUI drives the interactive shell through.
type Usecase interface {
	SendCommandInDir(cmd, cwd string) error
	// RunCommand executes with output captured into the log and the
	// command injected into shell history afterwards.
	RunCommand(cmd, cwd string) error
	InjectHistory(cmd, cwd string) error
	// RunVisible blocks until the user toggles back; the caller owns
	// leaving and re-entering the alternate screen around it.
	RunVisible(replay io.Writer, log []string) ([]domain.Message, error)
	Drain() []domain.Message
	Resize(cols, rows int) error
	Alive() bool
	Shutdown()
}
