package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	providerout "bark/internal/modules/provider/port/out"
	"bark/internal/platform/jsonline"
)

// StdioSessionFactory spawns long-lived plugin children with piped
// stdin/stdout and serializes the conversation over a framed channel.
type StdioSessionFactory struct {
	logger *zap.Logger
}

func NewStdioSessionFactory(logger *zap.Logger) providerout.SessionFactory {
	return &StdioSessionFactory{logger: logger}
}

func (f *StdioSessionFactory) Start(_ context.Context, source string) (providerout.Session, error) {
	// Deliberately not CommandContext: the child must outlive the call
	// that started it. Lifetime belongs to Close.
	cmd := exec.Command(source)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", source, err)
	}
	f.logger.Debug("plugin session started",
		zap.String("source", source),
		zap.Int("pid", cmd.Process.Pid))
	return &stdioSession{
		cmd:   cmd,
		stdin: stdin,
		ch:    jsonline.NewChannel(stdin, stdout),
	}, nil
}

type stdioSession struct {
	cmd   *exec.Cmd
	stdin interface{ Close() error }
	ch    *jsonline.Channel

	// Guards the channel; the event loop is single-threaded already, so
	// this only matters if a future caller gets it wrong.
	mu     sync.Mutex
	closed bool
}

func (s *stdioSession) Command(_ context.Context, request map[string]any) (jsonline.Object, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ch.Send(payload); err != nil {
		return nil, err
	}
	line, err := s.ch.RecvLine()
	if err != nil {
		return nil, err
	}
	return jsonline.Parse(line)
}

// Close gives the child a short grace window after stdin EOF, then kills
// it. The child is always reaped.
func (s *stdioSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	_ = s.stdin.Close()
	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-done
	}
	return nil
}
