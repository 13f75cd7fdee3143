//go:build unix

package lockfile

import "golang.org/x/sys/unix"

// pidAlive checks process existence with signal 0.
func pidAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
