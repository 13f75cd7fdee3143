//go:build !unix

package out

import (
	"errors"

	"go.uber.org/zap"

	shellout "bark/internal/modules/shell/port/out"
)

// ConPTY support is not wired up; the pure helpers for its quirks live in
// the domain package for when it is.
func StartPtyHost(string, string, int, int, *zap.Logger) (shellout.Host, error) {
	return nil, errors.New("interactive shell requires a unix pty")
}

type StdinForwarder struct{}

func NewStdinForwarder() shellout.Forwarder { return &StdinForwarder{} }

func (f *StdinForwarder) Run(func([]byte) error, func() bool, func(cols, rows int)) error {
	return errors.New("interactive shell requires a unix pty")
}
