package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	adapter "bark/internal/modules/provider/adapter/out"
	"bark/internal/modules/provider/domain"
)

func TestLocalListDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0o600); err != nil {
		t.Fatalf("write hidden: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	local := adapter.NewLocal()
	entries, err := local.ListDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byName := map[string]domain.FileEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	if len(byName) != 3 {
		t.Fatalf("entries: %+v", entries)
	}
	if e := byName["a.txt"]; e.IsDir || e.Size != 3 || e.Modified == 0 || e.IsHidden {
		t.Fatalf("a.txt: %+v", e)
	}
	if e := byName[".hidden"]; !e.IsHidden {
		t.Fatalf(".hidden: %+v", e)
	}
	if e := byName["sub"]; !e.IsDir {
		t.Fatalf("sub: %+v", e)
	}
}

func TestLocalFileRoundTripAndErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	local := adapter.NewLocal()
	ctx := context.Background()

	path := filepath.Join(dir, "x.bin")
	payload := []byte{0, 1, 2, 0xff}
	if err := local.WriteFile(ctx, path, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := local.ReadFile(ctx, path)
	if err != nil || string(got) != string(payload) {
		t.Fatalf("read: %v %v", got, err)
	}

	if _, err := local.ReadFile(ctx, filepath.Join(dir, "absent")); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("want not-found, got %v", err)
	}

	if err := local.Rename(ctx, path, filepath.Join(dir, "y.bin")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := local.Delete(ctx, filepath.Join(dir, "y.bin")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	nested := filepath.Join(dir, "a", "b")
	if err := local.Mkdir(ctx, nested); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := local.DeleteRecursive(ctx, filepath.Join(dir, "a")); err != nil {
		t.Fatalf("delete recursive: %v", err)
	}
}

func TestLocalCopyPreservesModTime(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	local := adapter.NewLocal()
	ctx := context.Background()

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("payload"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := local.SetAttributes(ctx, src, 1700000000, 0); err != nil {
		t.Fatalf("set attributes: %v", err)
	}
	if err := local.CopyFile(ctx, src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.ModTime().Unix() != 1700000000 {
		t.Fatalf("mtime not preserved: %v", info.ModTime())
	}
	if string(mustRead(t, dst)) != "payload" {
		t.Fatal("content mismatch")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
