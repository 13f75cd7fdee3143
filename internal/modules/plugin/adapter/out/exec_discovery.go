package out

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"

	"bark/internal/modules/plugin/domain"
	pluginout "bark/internal/modules/plugin/port/out"
)

// ExecDiscovery probes candidate executables with the discovery flag and
// parses their one-line manifests.
type ExecDiscovery struct {
	logger *zap.Logger
}

func NewExecDiscovery(logger *zap.Logger) pluginout.ManifestSource {
	return &ExecDiscovery{logger: logger}
}

func (d *ExecDiscovery) Discover(ctx context.Context, dir string) ([]domain.Descriptor, []domain.Diagnostic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read plugin dir: %w", err)
	}

	// Discovery order is contractual: it breaks viewer priority ties.
	names := make([]string, 0, len(entries))
	byName := make(map[string]fs.DirEntry, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Strings(names)

	var (
		descriptors []domain.Descriptor
		diagnostics []domain.Diagnostic
	)
	for _, name := range names {
		e := byName[name]
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, name)
		if !candidateExecutable(e) {
			continue
		}
		desc, err := d.probe(ctx, path)
		if err != nil {
			diagnostics = append(diagnostics, domain.Diagnostic{Source: path, Message: err.Error()})
			continue
		}
		d.logger.Debug("plugin discovered",
			zap.String("name", desc.Name),
			zap.String("kind", string(desc.Kind)),
			zap.String("source", path))
		descriptors = append(descriptors, desc)
	}
	return descriptors, diagnostics, nil
}

func (d *ExecDiscovery) probe(ctx context.Context, path string) (domain.Descriptor, error) {
	cmd := exec.CommandContext(ctx, path, "--plugin-info")
	cmd.Stdin = nil
	cmd.Stderr = nil
	out, err := cmd.Output()
	if err != nil {
		return domain.Descriptor{}, fmt.Errorf("discovery run failed: %v", err)
	}
	return domain.ParseManifest(string(out), path)
}

func candidateExecutable(e fs.DirEntry) bool {
	if runtime.GOOS == "windows" {
		name := strings.ToLower(e.Name())
		return strings.HasSuffix(name, ".exe") || strings.HasSuffix(name, ".bat") || strings.HasSuffix(name, ".cmd")
	}
	info, err := e.Info()
	if err != nil {
		return false
	}
	return info.Mode()&0o111 != 0
}
