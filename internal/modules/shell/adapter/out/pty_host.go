//go:build unix

package out

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"bark/internal/modules/shell/domain"
	shellout "bark/internal/modules/shell/port/out"
)

// PtyHost owns the shell child and its PTY master. A single reader
// goroutine turns PTY bytes into line messages; in visible mode it also
// forwards the raw bytes to the real stdout.
type PtyHost struct {
	cmd    *exec.Cmd
	master *os.File
	logger *zap.Logger

	messages chan domain.Message
	visible  atomic.Bool
	suppress atomic.Bool
	running  atomic.Bool

	// Resize cache: repeating an identical resize makes some shells
	// repaint their banner.
	lastCols int
	lastRows int
}

// StartPtyHost spawns the shell under a PTY sized to the terminal. Output
// starts suppressed so the banner and first prompt stay out of the log;
// the first toggle to visible clears it.
func StartPtyHost(shellPath, cwd string, cols, rows int, logger *zap.Logger) (shellout.Host, error) {
	cmd := exec.Command(shellPath)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), domain.DetectFlavor(shellPath).Env()...)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("start %s under pty: %w", shellPath, err)
	}

	h := &PtyHost{
		cmd:      cmd,
		master:   master,
		logger:   logger,
		messages: make(chan domain.Message, 4096),
		lastCols: cols,
		lastRows: rows,
	}
	h.running.Store(true)
	h.suppress.Store(true)
	go h.readLoop()
	logger.Info("interactive shell started",
		zap.String("shell", shellPath),
		zap.Int("pid", cmd.Process.Pid))
	return h, nil
}

func (h *PtyHost) readLoop() {
	buf := make([]byte, 4096)
	var lineBuf strings.Builder
	for h.running.Load() {
		n, err := h.master.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if h.visible.Load() {
				os.Stdout.Write(chunk)
			}
			// Lines keep flowing to the channel during visible mode so
			// command output from toggle sessions lands in the log; the
			// drain filter strips the rendering noise later. Suppression
			// (history injection, startup banner) drops them entirely.
			skip := h.suppress.Load()
			for _, b := range chunk {
				if b != '\n' {
					lineBuf.WriteByte(b)
					continue
				}
				if !skip {
					h.emitLine(lineBuf.String())
				}
				lineBuf.Reset()
			}
		}
		if err != nil {
			break
		}
	}
	if lineBuf.Len() > 0 && !h.suppress.Load() {
		h.emitLine(lineBuf.String())
	}
	h.Emit(domain.ShellExited{})
}

func (h *PtyHost) emitLine(raw string) {
	line := strings.TrimRight(raw, "\r")
	if strings.TrimSpace(domain.StripANSI(line)) == "" {
		return
	}
	h.Emit(domain.OutputLine{Text: line})
}

func (h *PtyHost) Write(p []byte) (int, error) { return h.master.Write(p) }

// Emit never blocks the caller: when the UI stops draining (visible mode
// with a chatty program), the oldest backlog entry is the right thing to
// lose.
func (h *PtyHost) Emit(msg domain.Message) {
	for {
		select {
		case h.messages <- msg:
			return
		default:
			select {
			case <-h.messages:
			default:
			}
		}
	}
}

func (h *PtyHost) Messages() <-chan domain.Message { return h.messages }

func (h *PtyHost) SetVisible(visible bool)         { h.visible.Store(visible) }
func (h *PtyHost) SetSuppressOutput(suppress bool) { h.suppress.Store(suppress) }

func (h *PtyHost) Resize(cols, rows int) error {
	if cols == h.lastCols && rows == h.lastRows {
		return nil
	}
	h.lastCols, h.lastRows = cols, rows
	return pty.Setsize(h.master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func (h *PtyHost) Alive() bool {
	if h.cmd.Process == nil || h.cmd.ProcessState != nil {
		return false
	}
	return h.cmd.Process.Signal(syscall.Signal(0)) == nil
}

// Shutdown kills the child and closes the master. The reader goroutine is
// left to die on its read error; joining it can hang on a wedged PTY.
func (h *PtyHost) Shutdown() {
	h.running.Store(false)
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	_ = h.master.Close()
	go func() { _ = h.cmd.Wait() }()
	time.Sleep(100 * time.Millisecond)
	h.logger.Debug("interactive shell shut down")
}
