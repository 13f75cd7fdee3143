package service

import (
	"context"

	"go.uber.org/zap"

	plugindomain "bark/internal/modules/plugin/domain"
	"bark/internal/modules/provider/domain"
	"bark/internal/modules/provider/dto"
	providerout "bark/internal/modules/provider/port/out"
	"bark/internal/platform/jsonline"
)

// OverlayService opens the persistent child conversation behind an
// interactive overlay plugin.
type OverlayService struct {
	factory providerout.SessionFactory
	logger  *zap.Logger
}

func NewOverlayService(factory providerout.SessionFactory, logger *zap.Logger) *OverlayService {
	return &OverlayService{factory: factory, logger: logger}
}

// Open spawns the overlay child and performs the init exchange. Width and
// height fall back to the manifest's declared geometry.
func (s *OverlayService) Open(ctx context.Context, desc plugindomain.Descriptor, width, height int) (*Overlay, error) {
	if width <= 0 {
		width = desc.Width
	}
	if height <= 0 {
		height = desc.Height
	}
	session, err := s.factory.Start(ctx, desc.Source)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "start %s: %v", desc.Source, err)
	}
	o := &Overlay{name: desc.Name, session: session}
	if _, err := o.exchange(ctx, map[string]any{
		"command": "init",
		"width":   width,
		"height":  height,
	}); err != nil {
		session.Close()
		return nil, err
	}
	return o, nil
}

// Overlay is one live overlay conversation. Frames arrive only as answers
// to init, key, and tick commands.
type Overlay struct {
	name      string
	session   providerout.Session
	wantsTick bool
	closed    bool
	last      dto.OverlayRender
}

func (o *Overlay) Name() string            { return o.name }
func (o *Overlay) Closed() bool            { return o.closed }
func (o *Overlay) WantsTick() bool         { return o.wantsTick && !o.closed }
func (o *Overlay) Last() dto.OverlayRender { return o.last }

// SendKey forwards one key event and returns the plugin's next frame.
func (o *Overlay) SendKey(ctx context.Context, key string, modifiers []string) (dto.OverlayRender, error) {
	if modifiers == nil {
		modifiers = []string{}
	}
	return o.exchange(ctx, map[string]any{
		"command":   "key",
		"key":       key,
		"modifiers": modifiers,
	})
}

// Tick is sent only while the last frame opted in with tick:true.
func (o *Overlay) Tick(ctx context.Context) (dto.OverlayRender, error) {
	return o.exchange(ctx, map[string]any{"command": "tick"})
}

func (o *Overlay) exchange(ctx context.Context, req map[string]any) (dto.OverlayRender, error) {
	if o.closed {
		return o.last, nil
	}
	resp, err := o.session.Command(ctx, req)
	if err != nil {
		o.closed = true
		o.session.Close()
		return dto.OverlayRender{Close: true}, sessionError(err)
	}
	if err := wireError(resp); err != nil {
		return dto.OverlayRender{}, err
	}
	render := renderFromWire(resp)
	o.wantsTick = render.Tick
	o.last = render
	if render.Close {
		o.Close()
	}
	return render, nil
}

// Close ends the conversation; the close command is best-effort.
func (o *Overlay) Close() {
	if o.closed {
		return
	}
	o.closed = true
	_, _ = o.session.Command(context.Background(), map[string]any{"command": "close"})
	_ = o.session.Close()
}

func renderFromWire(resp jsonline.Object) dto.OverlayRender {
	return dto.OverlayRender{
		Title:  resp.Str("title"),
		Width:  int(resp.Int("width")),
		Height: int(resp.Int("height")),
		Close:  resp.Bool("close"),
		Tick:   resp.Bool("tick"),
		Lines:  resp.Strings("lines"),
	}
}
