//go:build unix

package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	adapter "bark/internal/modules/provider/adapter/out"
)

// A minimal provider child: pattern-matching is enough because requests are
// whole lines and the test controls their shape.
const memProviderScript = `#!/bin/sh
while read line; do
  case "$line" in
    *'"connect"'*)        echo '{"success":true,"session_id":"s1"}' ;;
    *'"list_directory"'*) echo '{"entries":[{"name":"a.txt","path":"/a.txt","size":3,"modified":1700000000},{"name":"sub","path":"/sub","is_dir":true}]}' ;;
    *'"disconnect"'*)     echo '{"success":true}'; exit 0 ;;
    *)                    echo '{"error":"unknown command"}' ;;
  esac
done
`

func TestStdioSessionAgainstRealChild(t *testing.T) {
	t.Parallel()

	source := filepath.Join(t.TempDir(), "mem-provider")
	if err := os.WriteFile(source, []byte(memProviderScript), 0o755); err != nil {
		t.Fatalf("write provider script: %v", err)
	}

	factory := adapter.NewStdioSessionFactory(zap.NewNop())
	session, err := factory.Start(context.Background(), source)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Close()

	resp, err := session.Command(context.Background(), map[string]any{
		"command": "connect",
		"config":  map[string]any{"path": "/"},
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !resp.Bool("success") || resp.Str("session_id") != "s1" {
		t.Fatalf("connect response: %v", resp)
	}

	// Serialization law: each response answers the immediately preceding
	// request, across repeated exchanges on the same child.
	for i := 0; i < 3; i++ {
		resp, err = session.Command(context.Background(), map[string]any{
			"command":    "list_directory",
			"session_id": "s1",
			"path":       "/",
		})
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		entries := resp.Objects("entries")
		if len(entries) != 2 || entries[0].Int("size") != 3 || !entries[1].Bool("is_dir") {
			t.Fatalf("list %d: %v", i, entries)
		}
	}

	resp, err = session.Command(context.Background(), map[string]any{
		"command":    "disconnect",
		"session_id": "s1",
	})
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if !resp.Bool("success") {
		t.Fatalf("disconnect response: %v", resp)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStdioSessionCloseKillsStuckChild(t *testing.T) {
	t.Parallel()

	// Ignores stdin EOF and never exits on its own.
	source := filepath.Join(t.TempDir(), "stuck")
	if err := os.WriteFile(source, []byte("#!/bin/sh\nwhile true; do sleep 1; done\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	factory := adapter.NewStdioSessionFactory(zap.NewNop())
	session, err := factory.Start(context.Background(), source)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close should kill and reap: %v", err)
	}
	// Idempotent.
	if err := session.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
