package domain

import (
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		errType string
		message string
		want    ErrorKind
	}{
		{"auth", "login refused", KindAuth},
		{"not_found", "no such file", KindNotFound},
		{"permission", "read-only share", KindPermission},
		{"connection", "host unreachable", KindConnection},
		{"", "disk quota exceeded", KindOther},
		{"weird", "something", KindOther},
		{"", "PASSWORD_REQUIRED:archive is encrypted", KindPasswordRequired},
		{"connection", "PASSWORD_REQUIRED:retry", KindPasswordRequired},
		{"", "7z: Wrong password?", KindAuth},
		{"", "data error in encrypted file", KindAuth},
	}
	for _, tc := range cases {
		got := Classify(tc.errType, tc.message)
		if got.Kind != tc.want {
			t.Fatalf("Classify(%q, %q) = %v, want %v", tc.errType, tc.message, got.Kind, tc.want)
		}
	}
}

func TestSplitPasswordRequired(t *testing.T) {
	t.Parallel()

	reason, ok := SplitPasswordRequired("PASSWORD_REQUIRED: archive is encrypted")
	if !ok || reason != "archive is encrypted" {
		t.Fatalf("reason = %q ok=%v", reason, ok)
	}
	if _, ok := SplitPasswordRequired("password required"); ok {
		t.Fatal("prefix match must be exact")
	}
}

func TestIsKindUnwraps(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("connect: %w", NewError(KindAuth, "denied"))
	if !IsKind(err, KindAuth) {
		t.Fatal("wrapped provider error not recognized")
	}
	if IsKind(err, KindNotFound) {
		t.Fatal("wrong kind matched")
	}
	if IsKind(fmt.Errorf("plain"), KindAuth) {
		t.Fatal("plain error matched")
	}
}

func TestConfigCopiesNeverMutate(t *testing.T) {
	t.Parallel()

	base := Config{Name: "nas", Values: map[string]string{"host": "nas.local", "password": "hunter2"}}

	withPort := base.WithValue("port", "2222")
	if _, ok := base.Values["port"]; ok {
		t.Fatal("WithValue mutated the receiver")
	}
	if withPort.Values["port"] != "2222" || withPort.Values["host"] != "nas.local" {
		t.Fatalf("layered config: %v", withPort.Values)
	}

	saved := base.Persistable()
	if _, ok := saved.Values["password"]; ok {
		t.Fatal("password survived Persistable")
	}
	if base.Values["password"] != "hunter2" {
		t.Fatal("Persistable mutated the receiver")
	}

	wire := base.Wire()
	if wire["host"] != "nas.local" || wire["password"] != "hunter2" {
		t.Fatalf("wire object: %v", wire)
	}
}

func TestParseFieldKind(t *testing.T) {
	t.Parallel()

	cases := map[string]FieldKind{
		"text":      FieldText,
		"password":  FieldPassword,
		"number":    FieldNumber,
		"checkbox":  FieldCheckbox,
		"select":    FieldSelect,
		"textarea":  FieldTextArea,
		"file_path": FieldFilePath,
		"mystery":   FieldText,
	}
	for raw, want := range cases {
		if got := ParseFieldKind(raw); got != want {
			t.Fatalf("ParseFieldKind(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestDialogFieldValidate(t *testing.T) {
	t.Parallel()

	if err := (DialogField{ID: "host", Kind: FieldText}).Validate(); err != nil {
		t.Fatalf("valid field rejected: %v", err)
	}
	if err := (DialogField{Kind: FieldText}).Validate(); err == nil {
		t.Fatal("missing id accepted")
	}
	if err := (DialogField{ID: "mode", Kind: FieldSelect}).Validate(); err == nil {
		t.Fatal("select without options accepted")
	}
}
