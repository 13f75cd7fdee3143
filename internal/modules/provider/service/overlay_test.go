package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	plugindomain "bark/internal/modules/plugin/domain"
	"bark/internal/modules/provider/service"
)

var clockDescriptor = plugindomain.Descriptor{
	Name:   "clock",
	Kind:   plugindomain.KindOverlay,
	Source: "/plugins/clock",
	Width:  30,
	Height: 8,
}

func TestOverlayInitUsesManifestGeometry(t *testing.T) {
	t.Parallel()

	session := &fakeSession{responses: []string{
		`{"title":"Clock","width":30,"height":8,"tick":true,"lines":["12:00"]}`,
	}}
	svc := service.NewOverlayService(&fakeFactory{sessions: []*fakeSession{session}}, zap.NewNop())

	overlay, err := svc.Open(context.Background(), clockDescriptor, 0, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	init := session.requests[0]
	if init["command"] != "init" || init["width"] != 30 || init["height"] != 8 {
		t.Fatalf("init request: %v", init)
	}
	if !overlay.WantsTick() {
		t.Fatal("tick opt-in lost")
	}
	if got := overlay.Last(); got.Title != "Clock" || len(got.Lines) != 1 {
		t.Fatalf("frame: %+v", got)
	}
}

func TestOverlayKeyAndCloseFrame(t *testing.T) {
	t.Parallel()

	session := &fakeSession{responses: []string{
		`{"title":"Menu","lines":["> item"]}`,
		`{"close":true}`,
	}}
	svc := service.NewOverlayService(&fakeFactory{sessions: []*fakeSession{session}}, zap.NewNop())

	overlay, err := svc.Open(context.Background(), clockDescriptor, 40, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	frame, err := overlay.SendKey(context.Background(), "Escape", []string{"ctrl"})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if !frame.Close || !overlay.Closed() {
		t.Fatalf("close frame not honored: %+v closed=%v", frame, overlay.Closed())
	}
	if !session.closed {
		t.Fatal("overlay child not reaped")
	}

	key := session.requests[1]
	if key["command"] != "key" || key["key"] != "Escape" {
		t.Fatalf("key request: %v", key)
	}
	mods, ok := key["modifiers"].([]string)
	if !ok || len(mods) != 1 || mods[0] != "ctrl" {
		t.Fatalf("modifiers: %v", key["modifiers"])
	}

	// A closed overlay swallows further traffic.
	if _, err := overlay.Tick(context.Background()); err != nil {
		t.Fatalf("tick after close: %v", err)
	}
	if len(session.requests) > 3 {
		t.Fatalf("requests after close: %v", session.requests)
	}
}

func TestOverlayTickGating(t *testing.T) {
	t.Parallel()

	session := &fakeSession{responses: []string{
		`{"title":"Clock","tick":true,"lines":["12:00"]}`,
		`{"title":"Clock","tick":false,"lines":["12:01"]}`,
	}}
	svc := service.NewOverlayService(&fakeFactory{sessions: []*fakeSession{session}}, zap.NewNop())

	overlay, err := svc.Open(context.Background(), clockDescriptor, 0, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	frame, err := overlay.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if frame.Lines[0] != "12:01" {
		t.Fatalf("tick frame: %+v", frame)
	}
	if overlay.WantsTick() {
		t.Fatal("tick opt-out ignored")
	}
}
