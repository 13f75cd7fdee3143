//go:build unix

package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	adapter "bark/internal/modules/plugin/adapter/out"
	"bark/internal/modules/plugin/domain"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

func TestDiscoverRealExecutables(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeScript(t, dir, "mem-provider", `
if [ "$1" = "--plugin-info" ]; then
  echo '{"name":"mem","type":"provider","version":"0.1.0","schemes":["mem"]}'
fi
`)
	writeScript(t, dir, "noisy-viewer", `
echo "loading..." >&2
echo '{"name":"noisy","type":"viewer","extensions":[".log"]}'
`)
	writeScript(t, dir, "broken", `
echo "usage: broken"
`)
	// Plain data files are not candidates at all.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("docs"), 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}

	src := adapter.NewExecDiscovery(zap.NewNop())
	descriptors, diagnostics, err := src.Discover(context.Background(), dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("descriptors = %+v, want 2", descriptors)
	}
	if len(diagnostics) != 1 || filepath.Base(diagnostics[0].Source) != "broken" {
		t.Fatalf("diagnostics = %+v", diagnostics)
	}
	// Count law: parsed + rejected covers every executable candidate.
	if len(descriptors)+len(diagnostics) != 3 {
		t.Fatalf("candidate accounting broken: %d parsed, %d rejected", len(descriptors), len(diagnostics))
	}

	byName := map[string]domain.Descriptor{}
	for _, d := range descriptors {
		byName[d.Name] = d
	}
	if d := byName["mem"]; d.Kind != domain.KindProvider || d.Version != "0.1.0" {
		t.Fatalf("mem descriptor: %+v", d)
	}
	if d := byName["noisy"]; d.Kind != domain.KindViewer {
		t.Fatalf("noisy descriptor: %+v", d)
	}
}

func TestDiscoverMissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	src := adapter.NewExecDiscovery(zap.NewNop())
	descriptors, diagnostics, err := src.Discover(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if err != nil || descriptors != nil || diagnostics != nil {
		t.Fatalf("missing dir should be empty, got %v %v %v", descriptors, diagnostics, err)
	}
}

func TestQueryRoundTripAgainstChild(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	// Echoes a canned vote for the first request line, ignoring its body.
	source := writeScript(t, dir, "voter", `
read line
echo '{"can_handle":true,"priority":10}'
`)

	q := adapter.NewExecQuerier(zap.NewNop())
	resp, err := q.Query(context.Background(), source, map[string]any{
		"command": "viewer_can_handle",
		"path":    "/x.png",
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !resp.Bool("can_handle") || resp.Int("priority") != 10 {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestQueryChildThatExitsSilently(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	source := writeScript(t, dir, "mute", "exit 0\n")
	q := adapter.NewExecQuerier(zap.NewNop())
	if _, err := q.Query(context.Background(), source, map[string]any{"command": "status_render"}); err == nil {
		t.Fatal("silent exit should surface as an error")
	}
}
