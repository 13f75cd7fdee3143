package out

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
)

// Local is the panel provider for the machine's own filesystem. It is the
// default backing of both panels until the user connects somewhere.
type Local struct{}

func NewLocal() providerin.PanelProvider { return &Local{} }

func (l *Local) ListDirectory(_ context.Context, path string) ([]domain.FileEntry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, localError(err)
	}
	entries := make([]domain.FileEntry, 0, len(dirents))
	for _, de := range dirents {
		full := filepath.Join(path, de.Name())
		entry := domain.FileEntry{
			Name:     de.Name(),
			Path:     full,
			IsDir:    de.IsDir(),
			IsHidden: strings.HasPrefix(de.Name(), "."),
		}
		if info, err := os.Lstat(full); err == nil {
			entry.IsSymlink = info.Mode()&os.ModeSymlink != 0
			if entry.IsSymlink {
				if target, err := os.Readlink(full); err == nil {
					entry.SymlinkTarget = target
				}
				// Size and kind follow the target when it resolves.
				if resolved, err := os.Stat(full); err == nil {
					info = resolved
					entry.IsDir = resolved.IsDir()
				}
			}
			entry.Size = info.Size()
			entry.Modified = info.ModTime().Unix()
			entry.Permissions = uint32(info.Mode().Perm())
			entry.Owner, entry.Group = ownership(info)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Local) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, localError(err)
	}
	return data, nil
}

func (l *Local) WriteFile(_ context.Context, path string, data []byte) error {
	return localError(os.WriteFile(path, data, 0o644))
}

func (l *Local) Delete(_ context.Context, path string) error {
	return localError(os.Remove(path))
}

func (l *Local) DeleteRecursive(_ context.Context, path string) error {
	return localError(os.RemoveAll(path))
}

func (l *Local) Rename(_ context.Context, from, to string) error {
	return localError(os.Rename(from, to))
}

func (l *Local) Mkdir(_ context.Context, path string) error {
	return localError(os.MkdirAll(path, 0o755))
}

func (l *Local) CopyFile(_ context.Context, from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return localError(err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return localError(err)
	}
	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return localError(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return localError(err)
	}
	if err := dst.Close(); err != nil {
		return localError(err)
	}
	return localError(os.Chtimes(to, time.Now(), info.ModTime()))
}

func (l *Local) SetAttributes(_ context.Context, path string, modified int64, permissions uint32) error {
	if modified > 0 {
		mt := time.Unix(modified, 0)
		if err := os.Chtimes(path, mt, mt); err != nil {
			return localError(err)
		}
	}
	if permissions > 0 {
		if err := os.Chmod(path, os.FileMode(permissions)); err != nil {
			return localError(err)
		}
	}
	return nil
}

func (l *Local) HomePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return string(os.PathSeparator)
}

func (l *Local) DisplayName() string { return "local" }
func (l *Local) IsConnected() bool   { return true }
func (l *Local) Disconnect() error   { return nil }

// localError folds OS errors into the shared taxonomy so panels treat the
// local disk like any other provider.
func localError(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return domain.NewError(domain.KindNotFound, "%v", err)
	case os.IsPermission(err):
		return domain.NewError(domain.KindPermission, "%v", err)
	default:
		return fmt.Errorf("local fs: %w", err)
	}
}
