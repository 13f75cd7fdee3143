package domain

import "testing"

func feedAll(t *testing.T, tr *InputTracker, cwd string, chunks ...string) []InputTracked {
	t.Helper()
	var out []InputTracked
	for _, c := range chunks {
		out = append(out, tr.Feed([]byte(c), cwd)...)
	}
	return out
}

func TestTrackerCapturesTypedCommand(t *testing.T) {
	t.Parallel()

	var tr InputTracker
	got := feedAll(t, &tr, "/tmp", "echo hel", "lo", "\r")
	if len(got) != 1 || got[0].Text != "/tmp> echo hello" {
		t.Fatalf("tracked = %v", got)
	}
}

func TestTrackerEditingKeys(t *testing.T) {
	t.Parallel()

	var tr InputTracker
	// Type "lss", backspace once, finish the line.
	got := feedAll(t, &tr, "/home", "lss", "\x7f", " -la\r")
	if len(got) != 1 || got[0].Text != "/home> ls -la" {
		t.Fatalf("backspace: %v", got)
	}

	// Ctrl+U wipes the whole line; empty Enter emits nothing.
	got = feedAll(t, &tr, "/home", "rm -rf /", "\x15", "\r")
	if len(got) != 0 {
		t.Fatalf("ctrl+u: %v", got)
	}

	// Ctrl+W deletes the trailing word.
	got = feedAll(t, &tr, "/home", "git pussh", "\x17", "push\r")
	if len(got) != 1 || got[0].Text != "/home> git push" {
		t.Fatalf("ctrl+w: %v", got)
	}
}

func TestTrackerSkipsEscapeSequences(t *testing.T) {
	t.Parallel()

	var tr InputTracker
	// Right arrow (CSI C) and F1 (SS3 P) must not pollute the buffer.
	got := feedAll(t, &tr, "/", "ec", "\x1b[C", "\x1bOP", "ho x\r")
	if len(got) != 1 || got[0].Text != "/> echo x" {
		t.Fatalf("escape skip: %v", got)
	}
}

func TestTrackerHistoryRecallPlaceholder(t *testing.T) {
	t.Parallel()

	var tr InputTracker
	// Up arrow, then Enter on a line the tracker never saw.
	got := feedAll(t, &tr, "/tmp", "\x1b[A", "\r")
	if len(got) != 1 || got[0].Text != "/tmp> "+historyRecallPlaceholder {
		t.Fatalf("history recall: %v", got)
	}

	// Arrow navigation clears anything half-typed.
	got = feedAll(t, &tr, "/tmp", "part", "\x1b[B", "\r")
	if len(got) != 1 || got[0].Text != "/tmp> "+historyRecallPlaceholder {
		t.Fatalf("history after partial input: %v", got)
	}
}

func TestTrackerIgnoresControlBytes(t *testing.T) {
	t.Parallel()

	var tr InputTracker
	// Ctrl+C mid-line is not input; the buffer carries on.
	got := feedAll(t, &tr, "/", "ma\x03ke\r")
	if len(got) != 1 || got[0].Text != "/> make" {
		t.Fatalf("control bytes: %v", got)
	}
}

func TestFilterDrained(t *testing.T) {
	t.Parallel()

	batch := []Message{
		OutputLine{Text: "stale prompt fragment"}, // precedes first InputTracked
		OutputLine{Text: "\x1b[2;1Hredraw"},
		InputTracked{Text: "/tmp> echo hello"},
		OutputLine{Text: "\x1b[1;1Hprompt paint"}, // cursor move
		OutputLine{Text: "h"},                     // strips to one char
		OutputLine{Text: "hello"},
		InputTracked{Text: "/tmp> true"},
		ShellExited{},
	}
	kept := FilterDrained(batch)
	want := []Message{
		InputTracked{Text: "/tmp> echo hello"},
		OutputLine{Text: "hello"},
		InputTracked{Text: "/tmp> true"},
		ShellExited{},
	}
	if len(kept) != len(want) {
		t.Fatalf("kept = %v", kept)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Fatalf("kept[%d] = %v, want %v", i, kept[i], want[i])
		}
	}
}

func TestFilterDrainedNeverDropsInputTracked(t *testing.T) {
	t.Parallel()

	batch := []Message{
		InputTracked{Text: "/> a"},
		InputTracked{Text: "/> b"},
	}
	if got := FilterDrained(batch); len(got) != 2 {
		t.Fatalf("InputTracked dropped: %v", got)
	}
}
