package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	pluginout "bark/internal/modules/plugin/port/out"
	"bark/internal/platform/jsonline"
)

// ExecQuerier spawns a plugin child per query and performs a single framed
// round-trip. Status and viewer exchanges are stateless so this avoids
// session bookkeeping entirely.
type ExecQuerier struct {
	logger *zap.Logger
}

func NewExecQuerier(logger *zap.Logger) pluginout.Querier {
	return &ExecQuerier{logger: logger}
}

func (q *ExecQuerier) Query(ctx context.Context, source string, request map[string]any) (jsonline.Object, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, source)
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
	defer func() {
		stdin.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}()

	ch := jsonline.NewChannel(stdin, stdout)
	if err := ch.Send(payload); err != nil {
		return nil, err
	}
	line, err := ch.RecvLine()
	if err != nil {
		return nil, err
	}
	obj, err := jsonline.Parse(line)
	if err != nil {
		q.logger.Debug("plugin returned a malformed line",
			zap.String("source", source),
			zap.String("line", line))
		return nil, err
	}
	return obj, nil
}
