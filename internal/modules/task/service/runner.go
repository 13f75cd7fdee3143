// Package service runs slow work off the event loop. Every task is one
// goroutine that streams progress snapshots and delivers exactly one
// typed result; the UI polls both channels without blocking.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	plugindomain "bark/internal/modules/plugin/domain"
	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	"bark/internal/modules/task/domain"
	"bark/internal/modules/task/dto"
	taskout "bark/internal/modules/task/port/out"
	apperrors "bark/internal/platform/errors"
)

// Task is the handle the UI keeps while a worker runs. Results arrive on
// a buffered channel so the worker never blocks on delivery.
type Task struct {
	result   chan dto.Result
	progress chan domain.Progress
	cancel   *domain.CancelFlag
}

func newTask() *Task {
	return &Task{
		result:   make(chan dto.Result, 1),
		progress: make(chan domain.Progress, 256),
		cancel:   &domain.CancelFlag{},
	}
}

// Cancel requests cooperative cancellation. The worker notices at its
// next chunk or item boundary; the result still arrives afterwards.
func (t *Task) Cancel() { t.cancel.Cancel() }

// TryResult returns the task result without blocking.
func (t *Task) TryResult() (dto.Result, bool) {
	select {
	case res := <-t.result:
		return res, true
	default:
		return nil, false
	}
}

// TryProgress drains the progress channel and returns the newest
// snapshot, if any arrived since the last poll.
func (t *Task) TryProgress() (domain.Progress, bool) {
	var latest domain.Progress
	seen := false
	for {
		select {
		case p := <-t.progress:
			latest, seen = p, true
		default:
			return latest, seen
		}
	}
}

func (t *Task) finish(res dto.Result) { t.result <- res }

func (t *Task) report(p domain.Progress) {
	select {
	case t.progress <- p:
	default:
		// The UI is behind; this snapshot is stale the moment the next
		// one lands, so dropping it is safe.
	}
}

// Runner spawns background tasks.
type Runner struct {
	connector providerin.Connector
	fs        taskout.FileOps
	logger    *zap.Logger
}

func NewRunner(connector providerin.Connector, fs taskout.FileOps, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{connector: connector, fs: fs, logger: logger}
}

// ConnectPlugin opens a provider plugin session in the background. A
// PASSWORD_REQUIRED failure is flagged so the UI prompts instead of
// reporting an error.
func (r *Runner) ConnectPlugin(desc plugindomain.Descriptor, cfg providerdomain.Config) *Task {
	task := newTask()
	go func() {
		ctx := context.Background()
		if err := r.connector.ValidateConfig(ctx, desc.Source, cfg); err != nil {
			task.finish(dto.PluginFailed{Message: err.Error(), Kind: failureKind(err)})
			return
		}
		provider, err := r.connector.Connect(ctx, desc, cfg)
		if err != nil {
			r.logger.Debug("plugin connect failed", zap.String("plugin", desc.Name), zap.Error(err))
			kind := failureKind(err)
			task.finish(dto.PluginFailed{
				Message:          err.Error(),
				Kind:             kind,
				PasswordRequired: kind == providerdomain.KindPasswordRequired,
			})
			return
		}
		task.finish(dto.PluginConnected{Provider: provider})
	}()
	return task
}

// ConnectExtensionPlugin opens an extension-mode provider (archive
// viewers and the like) against a local file.
func (r *Runner) ConnectExtensionPlugin(desc plugindomain.Descriptor, localPath string) *Task {
	return r.connectExtension(desc, localPath, "")
}

// ConnectExtensionPluginWithPassword retries an extension-mode connect
// after the user supplied a password.
func (r *Runner) ConnectExtensionPluginWithPassword(desc plugindomain.Descriptor, localPath, password string) *Task {
	return r.connectExtension(desc, localPath, password)
}

func (r *Runner) connectExtension(desc plugindomain.Descriptor, localPath, password string) *Task {
	task := newTask()
	go func() {
		provider, err := r.connector.ConnectExtension(context.Background(), desc, localPath, password)
		if err != nil {
			kind := failureKind(err)
			task.finish(dto.PluginFailed{
				Message:          err.Error(),
				Kind:             kind,
				PasswordRequired: kind == providerdomain.KindPasswordRequired,
				ExtensionMode:    true,
				Source:           localPath,
			})
			return
		}
		task.finish(dto.PluginConnected{Provider: provider, ExtensionMode: true, Source: localPath})
	}()
	return task
}

// failureKind extracts the classified kind from a provider error chain.
func failureKind(err error) providerdomain.ErrorKind {
	var pe *providerdomain.Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return providerdomain.KindOther
}

// RemoteDialer opens a remote connection; the concrete transport lives
// with the caller.
type RemoteDialer func(ctx context.Context) (providerin.PanelProvider, error)

// ConnectRemote runs a remote dial in the background. hadPassword tells
// the failure path whether prompting for one could still help.
func (r *Runner) ConnectRemote(dial RemoteDialer, hadPassword bool) *Task {
	task := newTask()
	go func() {
		provider, err := dial(context.Background())
		if err != nil {
			task.finish(dto.RemoteFailed{
				Message:        err.Error(),
				PromptPassword: !hadPassword && providerdomain.LooksLikePasswordError(err.Error()),
			})
			return
		}
		task.finish(dto.RemoteConnected{Provider: provider})
	}()
	return task
}

// FileOperation copies or moves sources to dest on the local filesystem,
// streaming byte-level progress. Per-item failures are collected;
// cancellation stops at the next boundary and reports what completed.
func (r *Runner) FileOperation(op domain.Operation, sources []string, dest string) *Task {
	task := newTask()
	go func() {
		total := r.fs.TotalBytes(sources)
		var bytesDone int64
		count := 0
		var errs []string

		for i, src := range sources {
			if task.cancel.Canceled() {
				break
			}
			task.report(domain.Progress{
				BytesDone:   bytesDone,
				BytesTotal:  total,
				CurrentFile: src,
				FilesDone:   i,
				FilesTotal:  len(sources),
			})
			dst := r.fs.DestFor(src, dest, len(sources) == 1)
			onChunk := func(delta int64) {
				bytesDone += delta
				task.report(domain.Progress{
					BytesDone:   bytesDone,
					BytesTotal:  total,
					CurrentFile: src,
					FilesDone:   i,
					FilesTotal:  len(sources),
				})
			}
			var err error
			switch op {
			case domain.OpMove:
				err = r.fs.Move(src, dst, task.cancel, onChunk)
			case domain.OpDelete:
				err = r.fs.Delete(src, task.cancel)
			default:
				err = r.fs.Copy(src, dst, task.cancel, onChunk)
			}
			if errors.Is(err, apperrors.ErrOperationCanceled) {
				break
			}
			if err != nil {
				errs = append(errs, src+": "+err.Error())
				continue
			}
			count++
		}
		task.finish(dto.FileOpCompleted{Count: count, Errors: errs, OpName: op.PastTense()})
	}()
	return task
}
