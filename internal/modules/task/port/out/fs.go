package out

import "bark/internal/modules/task/domain"

// FileOps is the filesystem surface bulk operations run against.
type FileOps interface {
	// TotalBytes sums regular-file sizes reachable from paths.
	TotalBytes(paths []string) int64
	// DestFor decides where a source lands under dest.
	DestFor(src, dest string, singleSource bool) string
	Copy(src, dst string, cancel *domain.CancelFlag, onChunk func(int64)) error
	Move(src, dst string, cancel *domain.CancelFlag, onChunk func(int64)) error
	Delete(path string, cancel *domain.CancelFlag) error
}
