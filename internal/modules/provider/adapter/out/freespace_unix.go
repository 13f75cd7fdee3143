//go:build unix

package out

import (
	"context"

	"golang.org/x/sys/unix"
)

// FreeSpace reports the bytes available to unprivileged callers on the
// filesystem holding path.
func (l *Local) FreeSpace(_ context.Context, path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
