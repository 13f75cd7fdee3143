// Package out implements local filesystem bulk operations with byte-level
// progress reporting and cooperative cancellation.
package out

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bark/internal/modules/task/domain"
	taskout "bark/internal/modules/task/port/out"
	apperrors "bark/internal/platform/errors"
)

const copyChunk = 64 * 1024

// LocalFS runs bulk operations against the local disk.
type LocalFS struct{}

var _ taskout.FileOps = LocalFS{}

// TotalBytes sums the sizes of every regular file reachable from paths.
// Unreadable entries contribute zero; the copy itself will report them.
func (LocalFS) TotalBytes(paths []string) int64 {
	var total int64
	for _, p := range paths {
		filepath.Walk(p, func(_ string, info os.FileInfo, err error) error {
			if err != nil || info == nil {
				return nil
			}
			if info.Mode().IsRegular() {
				total += info.Size()
			}
			return nil
		})
	}
	return total
}

// DestFor decides where a source lands. A single source copied onto a
// destination that is not an existing directory is a rename; everything
// else keeps its base name under the destination directory.
func (LocalFS) DestFor(src, dest string, singleSource bool) string {
	if singleSource {
		if info, err := os.Stat(dest); err != nil || !info.IsDir() {
			return dest
		}
	}
	return filepath.Join(dest, filepath.Base(src))
}

// Copy copies a file or directory tree from src to dst. onChunk is called
// with the byte delta after every written chunk. Cancellation is checked
// between chunks; a canceled file copy removes the partial destination
// before returning ErrOperationCanceled.
func (fs LocalFS) Copy(src, dst string, cancel *domain.CancelFlag, onChunk func(int64)) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.copyDir(src, dst, info, cancel, onChunk)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	}
	return copyFile(src, dst, info, cancel, onChunk)
}

// Move moves src to dst, preferring an atomic rename. When rename fails
// (typically a cross-filesystem move) it falls back to copy plus delete,
// removing the source only after the copy fully succeeded.
func (fs LocalFS) Move(src, dst string, cancel *domain.CancelFlag, onChunk func(int64)) error {
	if err := os.Rename(src, dst); err == nil {
		if onChunk != nil {
			onChunk(fs.TotalBytes([]string{dst}))
		}
		return nil
	}
	if err := fs.Copy(src, dst, cancel, onChunk); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// Delete removes a file or directory tree, checking for cancellation
// between top-level entries of a directory.
func (LocalFS) Delete(path string, cancel *domain.CancelFlag) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.Remove(path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if cancel != nil && cancel.Canceled() {
			return apperrors.ErrOperationCanceled
		}
		if err := os.RemoveAll(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return os.Remove(path)
}

func (fs LocalFS) copyDir(src, dst string, info os.FileInfo, cancel *domain.CancelFlag, onChunk func(int64)) error {
	if cancel != nil && cancel.Canceled() {
		return apperrors.ErrOperationCanceled
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fs.Copy(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), cancel, onChunk); err != nil {
			return err
		}
	}
	// Directory attributes go last so copying children does not bump the
	// destination's mtime afterwards.
	os.Chmod(dst, info.Mode().Perm())
	os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

func copyFile(src, dst string, info os.FileInfo, cancel *domain.CancelFlag, onChunk func(int64)) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	buf := make([]byte, copyChunk)
	for {
		if cancel != nil && cancel.Canceled() {
			out.Close()
			os.Remove(dst)
			return apperrors.ErrOperationCanceled
		}
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				os.Remove(dst)
				return fmt.Errorf("write %s: %w", dst, werr)
			}
			if onChunk != nil {
				onChunk(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			os.Remove(dst)
			return fmt.Errorf("read %s: %w", src, rerr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	os.Chmod(dst, info.Mode().Perm())
	os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
