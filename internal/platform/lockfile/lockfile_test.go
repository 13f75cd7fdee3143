package lockfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	t.Parallel()
	g := New(t.TempDir())
	if err := g.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	raw, err := os.ReadFile(g.Path())
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	pid, err := strconv.Atoi(string(raw))
	if err != nil {
		t.Fatalf("lock file is not a pid: %q", raw)
	}
	if pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), pid)
	}
	g.Release()
	if _, err := os.Stat(g.Path()); !os.IsNotExist(err) {
		t.Fatalf("lock file should be gone after release")
	}
}

func TestOwnPidIsNotAnExistingInstance(t *testing.T) {
	t.Parallel()
	g := New(t.TempDir())
	if err := g.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if pid, ok := g.ExistingInstance(); ok {
		t.Fatalf("own pid %d reported as existing instance", pid)
	}
}

func TestDeadPidIsStale(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// PIDs this high do not exist on any sane system.
	if err := os.WriteFile(filepath.Join(dir, name), []byte("999999999"), 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}
	g := New(dir)
	if _, ok := g.ExistingInstance(); ok {
		t.Fatalf("dead pid reported as live instance")
	}
}

func TestGarbageLockFileIgnored(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("not-a-pid"), 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}
	g := New(dir)
	if _, ok := g.ExistingInstance(); ok {
		t.Fatalf("garbage lock file should be ignored")
	}
}
