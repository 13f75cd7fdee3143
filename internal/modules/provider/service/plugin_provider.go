package service

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"

	"bark/internal/modules/provider/domain"
	providerout "bark/internal/modules/provider/port/out"
	"bark/internal/platform/jsonline"
)

// PluginProvider exposes an open provider session as the filesystem
// interface panels consume. Every method is one serialized round-trip.
type PluginProvider struct {
	session   providerout.Session
	sessionID string
	label     string
	home      string
	connected bool
	logger    *zap.Logger
}

func (p *PluginProvider) command(ctx context.Context, name string, extra map[string]any) (jsonline.Object, error) {
	req := map[string]any{
		"command":    name,
		"session_id": p.sessionID,
	}
	for k, v := range extra {
		req[k] = v
	}
	resp, err := p.session.Command(ctx, req)
	if err != nil {
		// A broken conversation never recovers; drop the session.
		p.connected = false
		return nil, sessionError(err)
	}
	if err := wireError(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *PluginProvider) ListDirectory(ctx context.Context, path string) ([]domain.FileEntry, error) {
	resp, err := p.command(ctx, "list_directory", map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	raws := resp.Objects("entries")
	entries := make([]domain.FileEntry, 0, len(raws))
	for _, raw := range raws {
		entries = append(entries, entryFromWire(raw))
	}
	return entries, nil
}

func (p *PluginProvider) ReadFile(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.command(ctx, "read_file", map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(resp.Str("data"))
	if err != nil {
		return nil, domain.NewError(domain.KindProtocol, "file payload is not base64: %v", err)
	}
	return data, nil
}

func (p *PluginProvider) WriteFile(ctx context.Context, path string, data []byte) error {
	_, err := p.command(ctx, "write_file", map[string]any{
		"path": path,
		"data": base64.StdEncoding.EncodeToString(data),
	})
	return err
}

func (p *PluginProvider) Delete(ctx context.Context, path string) error {
	_, err := p.command(ctx, "delete", map[string]any{"path": path})
	return err
}

func (p *PluginProvider) DeleteRecursive(ctx context.Context, path string) error {
	_, err := p.command(ctx, "delete", map[string]any{"path": path, "recursive": true})
	return err
}

func (p *PluginProvider) Rename(ctx context.Context, from, to string) error {
	_, err := p.command(ctx, "rename", map[string]any{"from": from, "to": to})
	return err
}

func (p *PluginProvider) Mkdir(ctx context.Context, path string) error {
	_, err := p.command(ctx, "mkdir", map[string]any{"path": path})
	return err
}

func (p *PluginProvider) CopyFile(ctx context.Context, from, to string) error {
	_, err := p.command(ctx, "copy_file", map[string]any{"from": from, "to": to})
	return err
}

// SetAttributes is best-effort: plugins may not implement the command and
// a miss never fails the surrounding operation.
func (p *PluginProvider) SetAttributes(ctx context.Context, path string, modified int64, permissions uint32) error {
	extra := map[string]any{"path": path}
	if modified > 0 {
		extra["modified"] = modified
	}
	if permissions > 0 {
		extra["permissions"] = permissions
	}
	if _, err := p.command(ctx, "set_attributes", extra); err != nil {
		p.logger.Debug("set_attributes ignored", zap.String("path", path), zap.Error(err))
	}
	return nil
}

// FreeSpace asks the plugin for free bytes at path. Plugins that do not
// implement the command report an error, which callers treat as unknown.
func (p *PluginProvider) FreeSpace(ctx context.Context, path string) (uint64, error) {
	resp, err := p.command(ctx, "get_free_space", map[string]any{"path": path})
	if err != nil {
		return 0, err
	}
	return uint64(resp.Int("free_space")), nil
}

func (p *PluginProvider) HomePath() string    { return p.home }
func (p *PluginProvider) DisplayName() string { return p.label }
func (p *PluginProvider) IsConnected() bool   { return p.connected }

// Disconnect asks the plugin to shut down cleanly, then guarantees the
// child is gone either way.
func (p *PluginProvider) Disconnect() error {
	if p.connected {
		_, _ = p.session.Command(context.Background(), map[string]any{
			"command":    "disconnect",
			"session_id": p.sessionID,
		})
		p.connected = false
	}
	return p.session.Close()
}

func entryFromWire(raw jsonline.Object) domain.FileEntry {
	modified := raw.Int("modified")
	if modified == 0 {
		modified = raw.Int("mtime")
	}
	return domain.FileEntry{
		Name:          raw.Str("name"),
		Path:          raw.Str("path"),
		IsDir:         raw.Bool("is_dir"),
		Size:          raw.Int("size"),
		Modified:      modified,
		IsHidden:      raw.Bool("is_hidden"),
		Permissions:   uint32(raw.Int("permissions")),
		IsSymlink:     raw.Bool("is_symlink"),
		SymlinkTarget: raw.Str("symlink_target"),
		Owner:         raw.Str("owner"),
		Group:         raw.Str("group"),
	}
}
