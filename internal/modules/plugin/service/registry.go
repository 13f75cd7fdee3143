package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"bark/internal/modules/plugin/domain"
	"bark/internal/modules/plugin/dto"
	pluginout "bark/internal/modules/plugin/port/out"
	apperrors "bark/internal/platform/errors"
)

// Registry holds the discovered plugins partitioned by kind. Lookups query
// plugin children but never mutate the registry after loading.
type Registry struct {
	source  pluginout.ManifestSource
	querier pluginout.Querier
	logger  *zap.Logger

	statusBars  []domain.Descriptor
	viewers     []domain.Descriptor
	overlays    []domain.Descriptor
	providers   []domain.Descriptor
	diagnostics []domain.Diagnostic
}

func NewRegistry(source pluginout.ManifestSource, querier pluginout.Querier, logger *zap.Logger) *Registry {
	return &Registry{source: source, querier: querier, logger: logger}
}

// LoadFromDirectory discovers every executable in dir and partitions the
// parsed descriptors by kind, preserving discovery order within each kind.
// Rejected candidates end up in Diagnostics.
func (r *Registry) LoadFromDirectory(ctx context.Context, dir string) error {
	descriptors, diagnostics, err := r.source.Discover(ctx, dir)
	if err != nil {
		return fmt.Errorf("plugin discovery: %w", err)
	}
	r.statusBars = r.statusBars[:0]
	r.viewers = r.viewers[:0]
	r.overlays = r.overlays[:0]
	r.providers = r.providers[:0]
	r.diagnostics = diagnostics

	for _, d := range descriptors {
		switch d.Kind {
		case domain.KindStatusBar:
			r.statusBars = append(r.statusBars, d)
		case domain.KindViewer:
			r.viewers = append(r.viewers, d)
		case domain.KindOverlay:
			r.overlays = append(r.overlays, d)
		case domain.KindProvider:
			r.providers = append(r.providers, d)
		}
	}
	r.logger.Info("plugins loaded",
		zap.Int("status", len(r.statusBars)),
		zap.Int("viewers", len(r.viewers)),
		zap.Int("overlays", len(r.overlays)),
		zap.Int("providers", len(r.providers)),
		zap.Int("rejected", len(r.diagnostics)))
	return nil
}

func (r *Registry) Diagnostics() []domain.Diagnostic { return r.diagnostics }

func (r *Registry) Count() int {
	return len(r.statusBars) + len(r.viewers) + len(r.overlays) + len(r.providers)
}

func (r *Registry) List() []dto.PluginInfo {
	var infos []dto.PluginInfo
	for _, group := range [][]domain.Descriptor{r.statusBars, r.viewers, r.overlays, r.providers} {
		for _, d := range group {
			infos = append(infos, dto.PluginInfo{
				Name:       d.Name,
				Version:    d.Version,
				Kind:       string(d.Kind),
				Source:     d.Source,
				Icon:       d.Icon,
				Extensions: d.Extensions,
				Schemes:    d.Schemes,
			})
		}
	}
	return infos
}

// RenderStatus asks every status-bar plugin for its contribution. A plugin
// that errors or returns no text contributes nothing.
func (r *Registry) RenderStatus(ctx context.Context, sc dto.StatusContext) []dto.StatusLine {
	var lines []dto.StatusLine
	for _, d := range r.statusBars {
		resp, err := r.querier.Query(ctx, d.Source, map[string]any{
			"command":        "status_render",
			"path":           sc.Path,
			"selected_file":  sc.SelectedFile,
			"is_dir":         sc.IsDir,
			"file_size":      sc.FileSize,
			"selected_count": sc.SelectedCount,
		})
		if err != nil {
			r.logger.Debug("status plugin failed", zap.String("plugin", d.Name), zap.Error(err))
			continue
		}
		if text := resp.Str("text"); text != "" {
			lines = append(lines, dto.StatusLine{Plugin: d.Name, Text: text})
		}
	}
	return lines
}

// FindViewer runs the can-handle vote across all viewer plugins and returns
// the one with the highest positive priority. Ties keep the plugin
// discovered first.
func (r *Registry) FindViewer(ctx context.Context, path string) (domain.Descriptor, bool) {
	var (
		best     domain.Descriptor
		bestPrio int
	)
	for _, d := range r.viewers {
		prio, ok := r.canHandle(ctx, d, path)
		if ok && prio > bestPrio {
			best, bestPrio = d, prio
		}
	}
	return best, bestPrio > 0
}

// ListViewerPlugins returns every viewer that claims the path, in discovery
// order, for the viewer-choice menu.
func (r *Registry) ListViewerPlugins(ctx context.Context, path string) []dto.ViewerChoice {
	var choices []dto.ViewerChoice
	for _, d := range r.viewers {
		if prio, ok := r.canHandle(ctx, d, path); ok {
			choices = append(choices, dto.ViewerChoice{Name: d.Name, Priority: prio})
		}
	}
	return choices
}

func (r *Registry) FindViewerByName(name string) (domain.Descriptor, bool) {
	for _, d := range r.viewers {
		if d.Name == name {
			return d, true
		}
	}
	return domain.Descriptor{}, false
}

func (r *Registry) canHandle(ctx context.Context, d domain.Descriptor, path string) (int, bool) {
	// A manifest that declares a magic prefix which provably does not
	// match spares the child a spawn. Everything else still gets the vote.
	if d.Magic != "" && !d.CatchAll() && !d.HandlesExtension(path) && !magicMatches(path, d.Magic) {
		return 0, false
	}
	resp, err := r.querier.Query(ctx, d.Source, map[string]any{
		"command": "viewer_can_handle",
		"path":    path,
	})
	if err != nil {
		r.logger.Debug("viewer vote failed", zap.String("plugin", d.Name), zap.Error(err))
		return 0, false
	}
	if !resp.Bool("can_handle") {
		return 0, false
	}
	prio := int(resp.Int("priority"))
	return prio, prio > 0
}

// magicMatches reports whether the file begins with the declared magic
// bytes. Files it cannot read stay candidates so the plugin decides.
func magicMatches(path, magic string) bool {
	want, err := hex.DecodeString(magic)
	if err != nil || len(want) == 0 {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	head := make([]byte, len(want))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, want)
}

// RenderViewer asks the named viewer for a window of rendered lines. A
// launched:true response means the plugin opened an external program and
// the caller should fall back to the built-in viewer.
func (r *Registry) RenderViewer(ctx context.Context, name, path string, width, height, scroll int) (dto.ViewerRender, error) {
	d, ok := r.FindViewerByName(name)
	if !ok {
		return dto.ViewerRender{}, fmt.Errorf("viewer %s: %w", name, apperrors.ErrNotFound)
	}
	resp, err := r.querier.Query(ctx, d.Source, map[string]any{
		"command": "viewer_render",
		"path":    path,
		"width":   width,
		"height":  height,
		"scroll":  scroll,
	})
	if err != nil {
		return dto.ViewerRender{}, fmt.Errorf("viewer %s render: %w", name, err)
	}
	if msg := resp.Str("error"); msg != "" {
		return dto.ViewerRender{}, fmt.Errorf("viewer %s: %s", name, msg)
	}
	return dto.ViewerRender{
		Lines:      resp.Strings("lines"),
		TotalLines: int(resp.Int("total_lines")),
		Launched:   resp.Bool("launched"),
	}, nil
}

func (r *Registry) FindProviderByScheme(scheme string) (domain.Descriptor, bool) {
	for _, d := range r.providers {
		if d.HandlesScheme(scheme) {
			return d, true
		}
	}
	return domain.Descriptor{}, false
}

func (r *Registry) FindProviderByExtension(path string) (domain.Descriptor, bool) {
	for _, d := range r.providers {
		if d.HandlesExtension(path) {
			return d, true
		}
	}
	return domain.Descriptor{}, false
}

// ListProviderPlugins returns the providers reachable from the connect
// dialog, which means those declaring at least one URI scheme.
// Extension-mode providers activate by opening a matching file instead.
func (r *Registry) ListProviderPlugins() []domain.Descriptor {
	var out []domain.Descriptor
	for _, d := range r.providers {
		if len(d.Schemes) > 0 {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) ListAllProviderPlugins() []domain.Descriptor {
	return append([]domain.Descriptor(nil), r.providers...)
}

func (r *Registry) Overlays() []domain.Descriptor {
	return append([]domain.Descriptor(nil), r.overlays...)
}

func (r *Registry) FindOverlayByName(name string) (domain.Descriptor, bool) {
	for _, d := range r.overlays {
		if d.Name == name {
			return d, true
		}
	}
	return domain.Descriptor{}, false
}
