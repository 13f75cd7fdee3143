package jsonline

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	apperrors "bark/internal/platform/errors"
)

func TestChannelRoundTrip(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	in := strings.NewReader(`{"success":true}` + "\n")
	ch := NewChannel(&out, in)

	if err := ch.Send([]byte(`{"command":"connect"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := out.String(); got != `{"command":"connect"}`+"\n" {
		t.Fatalf("unexpected frame: %q", got)
	}
	line, err := ch.RecvLine()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if line != `{"success":true}` {
		t.Fatalf("unexpected line: %q", line)
	}
}

func TestChannelRecvStripsCarriageReturn(t *testing.T) {
	t.Parallel()

	ch := NewChannel(io.Discard, strings.NewReader("{\"a\":1}\r\n"))
	line, err := ch.RecvLine()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if line != `{"a":1}` {
		t.Fatalf("CR not stripped: %q", line)
	}
}

func TestChannelRecvLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	ch := NewChannel(io.Discard, strings.NewReader(`{"a":1}`))
	line, err := ch.RecvLine()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if line != `{"a":1}` {
		t.Fatalf("unexpected line: %q", line)
	}
}

func TestChannelRecvErrors(t *testing.T) {
	t.Parallel()

	ch := NewChannel(io.Discard, strings.NewReader(""))
	if _, err := ch.RecvLine(); !errors.Is(err, apperrors.ErrTransportClosed) {
		t.Fatalf("want ErrTransportClosed, got %v", err)
	}

	ch = NewChannel(io.Discard, strings.NewReader("   \n"))
	if _, err := ch.RecvLine(); !errors.Is(err, apperrors.ErrEmptyResponse) {
		t.Fatalf("want ErrEmptyResponse, got %v", err)
	}
}

func TestParseAndFieldAccess(t *testing.T) {
	t.Parallel()

	obj, err := Parse(`{"name":"sftp","size":"42","pi":3.0,"ok":true,"schemes":["sftp","scp"],"entries":[{"name":"a"}],"extra":null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := obj.Str("name"); got != "sftp" {
		t.Fatalf("Str: %q", got)
	}
	if got := obj.Int("size"); got != 42 {
		t.Fatalf("Int from string: %d", got)
	}
	if got := obj.Int("pi"); got != 3 {
		t.Fatalf("Int from float: %d", got)
	}
	if !obj.Bool("ok") {
		t.Fatal("Bool: want true")
	}
	if got := obj.Strings("schemes"); len(got) != 2 || got[1] != "scp" {
		t.Fatalf("Strings: %v", got)
	}
	entries := obj.Objects("entries")
	if len(entries) != 1 || entries[0].Str("name") != "a" {
		t.Fatalf("Objects: %v", entries)
	}
	if !obj.Has("extra") {
		t.Fatal("Has should see null fields")
	}
	if obj.Has("missing") || obj.Str("missing") != "" || obj.Bool("missing") || obj.Int("missing") != 0 {
		t.Fatal("missing fields should yield zero values")
	}
}

func TestParseRejectsNonObjects(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"[]", "42", "not json", `"str"`} {
		if _, err := Parse(line); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("Parse(%q): want ErrInvalidInput, got %v", line, err)
		}
	}
}
