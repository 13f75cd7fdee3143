//go:build !unix

package out

import (
	"context"
	"errors"
)

func (l *Local) FreeSpace(_ context.Context, _ string) (uint64, error) {
	return 0, errors.New("free space query not supported on this platform")
}
