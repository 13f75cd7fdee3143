// Package lockfile implements the advisory single-instance guard: a plain
// text file holding the owning process's decimal PID. It is advisory only;
// there is no hard cross-process lock.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const name = "bark.lock"

type Guard struct {
	path string
}

func New(configDir string) *Guard {
	return &Guard{path: filepath.Join(configDir, name)}
}

func (g *Guard) Path() string { return g.path }

// ExistingInstance reports the PID of a live prior instance, if any.
// A stale file (dead PID or our own PID) reports nothing.
func (g *Guard) ExistingInstance() (int, bool) {
	raw, err := os.ReadFile(g.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid == os.Getpid() {
		return 0, false
	}
	if !pidAlive(pid) {
		return 0, false
	}
	return pid, true
}

// Acquire writes our PID. Call after ExistingInstance has been handled.
func (g *Guard) Acquire() error {
	if err := os.WriteFile(g.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	return nil
}

func (g *Guard) Release() {
	_ = os.Remove(g.path)
}
