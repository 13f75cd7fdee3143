package service

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bark/internal/modules/shell/domain"
	shellout "bark/internal/modules/shell/port/out"
)

var captureSeq atomic.Int64

// Shell drives the interactive shell for the whole program: command
// injection from the UI, history injection, the visible-mode toggle, and
// script(1) capture of UI-issued commands.
type Shell struct {
	host       shellout.Host
	forwarder  shellout.Forwarder
	shellPath  string
	flavor     domain.Flavor
	tracker    domain.InputTracker
	lastCwd    string
	captureDir string
	bsdScript  bool
	logger     *zap.Logger
}

func NewShell(host shellout.Host, forwarder shellout.Forwarder, shellPath, cwd, captureDir string, logger *zap.Logger) *Shell {
	if captureDir == "" {
		captureDir = os.TempDir()
	}
	return &Shell{
		host:       host,
		forwarder:  forwarder,
		shellPath:  shellPath,
		flavor:     domain.DetectFlavor(shellPath),
		lastCwd:    cwd,
		captureDir: captureDir,
		bsdScript:  runtime.GOOS == "darwin",
		logger:     logger,
	}
}

// ResolveShell picks the shell to spawn: explicit config, then the
// platform's notion of a default.
func ResolveShell(configured string) string {
	if configured != "" {
		return configured
	}
	if runtime.GOOS == "windows" {
		for _, candidate := range []string{"pwsh", "powershell"} {
			if _, err := exec.LookPath(candidate); err == nil {
				return candidate
			}
		}
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func (s *Shell) Flavor() domain.Flavor { return s.flavor }
func (s *Shell) LastCwd() string       { return s.lastCwd }

// SendCommand writes one command line terminated the way the shell's
// platform expects Enter.
func (s *Shell) SendCommand(cmd string) error {
	_, err := s.host.Write([]byte(cmd + s.flavor.LineEnding()))
	return err
}

// SendCommandInDir prepends a directory change when the working directory
// moved since the last command, chained on one line so only one prompt
// prints.
func (s *Shell) SendCommandInDir(cmd, cwd string) error {
	if cwd != "" && cwd != s.lastCwd {
		s.lastCwd = cwd
		return s.SendCommand(s.flavor.ChainCd(cwd, cmd))
	}
	return s.SendCommand(cmd)
}

// RunCommand executes a UI-issued command in the interactive shell while
// teeing its output into the log. The echo line lands immediately; output
// lines follow once the command finishes; the command then enters the
// shell's history.
func (s *Shell) RunCommand(cmd, cwd string) error {
	if err := os.MkdirAll(s.captureDir, 0o700); err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}
	s.host.Emit(domain.InputTracked{Text: domain.PromptLine(cwd, cmd)})

	file := filepath.Join(s.captureDir, fmt.Sprintf("bark_capture_%d_%d", os.Getpid(), captureSeq.Add(1)))
	capture := domain.NewCapture(s.shellPath, cmd, file, s.bsdScript)
	if err := s.SendCommandInDir(capture.Wrapped, cwd); err != nil {
		return err
	}
	go s.consumeCapture(capture, cmd, cwd)
	return nil
}

// consumeCapture waits for the done marker, emits the filtered output, and
// removes the temp files.
func (s *Shell) consumeCapture(capture domain.Capture, cmd, cwd string) {
	for {
		if _, err := os.Stat(capture.DoneFile); err == nil {
			break
		}
		if !s.host.Alive() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	content, err := os.ReadFile(capture.File)
	if err == nil {
		for _, line := range domain.ParseCaptureOutput(string(content)) {
			s.host.Emit(domain.OutputLine{Text: line})
		}
	}
	_ = os.Remove(capture.File)
	_ = os.Remove(capture.DoneFile)
	if err := s.InjectHistory(cmd, cwd); err != nil {
		s.logger.Debug("history injection failed", zap.Error(err))
	}
}

// InjectHistory appends a UI-issued command to the shell's Up-arrow
// history without visible side effects. Shells with no silent append
// re-execute the command under suppression. Suppression lifts on a short
// timer so later output is visible again.
func (s *Shell) InjectHistory(cmd, cwd string) error {
	injection, reexec := s.flavor.HistoryInjection(cmd)
	s.host.SetSuppressOutput(true)
	var err error
	if reexec {
		err = s.SendCommandInDir(cmd, cwd)
	} else {
		err = s.SendCommand(injection)
	}
	time.AfterFunc(500*time.Millisecond, func() {
		s.host.SetSuppressOutput(false)
	})
	return err
}

// RunVisible hands the terminal to the shell until the user toggles back.
// The caller must already have left the alternate screen. The returned
// batch is drain-filtered and ready for the log.
func (s *Shell) RunVisible(replay io.Writer, log []string) ([]domain.Message, error) {
	// First toggle lifts the startup suppression; later ones are no-ops.
	s.host.SetSuppressOutput(false)

	if s.flavor.ReplaysLog() {
		for _, line := range log {
			fmt.Fprintln(replay, line)
		}
	}
	s.host.SetVisible(true)
	if b := s.flavor.PromptRedrawBytes(); len(b) > 0 {
		_, _ = s.host.Write(b)
	}

	err := s.forwarder.Run(s.forwardBytes, s.host.Alive, func(cols, rows int) {
		_ = s.host.Resize(cols, rows)
	})

	s.host.SetVisible(false)
	kept := domain.FilterDrained(s.drainAll())
	kept = s.trimTrailingPrompt(kept)
	return kept, err
}

func (s *Shell) forwardBytes(data []byte) error {
	if _, err := s.host.Write(data); err != nil {
		return err
	}
	for _, tracked := range s.tracker.Feed(data, s.lastCwd) {
		s.host.Emit(tracked)
	}
	return nil
}

// trimTrailingPrompt drops the bare prompt ConPTY shells leave as the last
// drained line.
func (s *Shell) trimTrailingPrompt(batch []domain.Message) []domain.Message {
	if s.flavor != domain.FlavorPowerShell && s.flavor != domain.FlavorCmd {
		return batch
	}
	if len(batch) == 0 {
		return batch
	}
	if last, ok := batch[len(batch)-1].(domain.OutputLine); ok && domain.IsBarePrompt(last.Text) {
		return batch[:len(batch)-1]
	}
	return batch
}

// Drain empties the message channel without blocking; the event loop calls
// this every tick while the TUI is on screen.
func (s *Shell) Drain() []domain.Message {
	return s.drainAll()
}

func (s *Shell) drainAll() []domain.Message {
	var batch []domain.Message
	for {
		select {
		case msg := <-s.host.Messages():
			batch = append(batch, msg)
		default:
			return batch
		}
	}
}

func (s *Shell) Resize(cols, rows int) error { return s.host.Resize(cols, rows) }
func (s *Shell) Alive() bool                 { return s.host.Alive() }
func (s *Shell) Shutdown()                   { s.host.Shutdown() }
