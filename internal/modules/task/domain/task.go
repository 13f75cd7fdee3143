package domain

import "sync/atomic"

// Operation tags a bulk file operation.
type Operation int

const (
	OpCopy Operation = iota
	OpMove
	OpDelete
)

// PastTense is the op_name reported in completion results.
func (o Operation) PastTense() string {
	switch o {
	case OpMove:
		return "Moved"
	case OpDelete:
		return "Deleted"
	default:
		return "Copied"
	}
}

// Progress is one snapshot of a bulk operation. Within a task BytesDone
// and FilesDone never decrease.
type Progress struct {
	BytesDone   int64
	BytesTotal  int64
	CurrentFile string
	FilesDone   int
	FilesTotal  int
}

// CancelFlag is the cooperative cancellation handle shared between the UI
// and a worker. Workers poll it at iteration and chunk boundaries.
type CancelFlag struct {
	set atomic.Bool
}

func (f *CancelFlag) Cancel()        { f.set.Store(true) }
func (f *CancelFlag) Canceled() bool { return f.set.Load() }
