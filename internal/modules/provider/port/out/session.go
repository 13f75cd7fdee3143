package out

import (
	"context"

	"bark/internal/platform/jsonline"
)

// Session is one live plugin child speaking the framed protocol. Command
// performs exactly one serialized round-trip; responses never interleave.
type Session interface {
	Command(ctx context.Context, request map[string]any) (jsonline.Object, error)
	Close() error
}

// SessionFactory spawns the long-lived child for a plugin source path.
type SessionFactory interface {
	Start(ctx context.Context, source string) (Session, error)
}
