package domain

import (
	"strings"
	"testing"
)

func TestDetectFlavor(t *testing.T) {
	t.Parallel()

	cases := map[string]Flavor{
		"/bin/bash":         FlavorBash,
		"/usr/bin/zsh":      FlavorZsh,
		"/opt/fish":         FlavorFish,
		"pwsh":              FlavorPowerShell,
		"powershell.exe":    FlavorPowerShell,
		`C:\Windows\cmd.exe`: FlavorCmd,
		"/bin/sh":           FlavorPOSIX,
		"/bin/dash":         FlavorPOSIX,
	}
	for path, want := range cases {
		if got := DetectFlavor(path); got != want {
			t.Fatalf("DetectFlavor(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestChainCd(t *testing.T) {
	t.Parallel()

	if got := FlavorBash.ChainCd("/tmp/my dir", "ls"); got != "cd '/tmp/my dir' && ls" {
		t.Fatalf("posix chain: %q", got)
	}
	if got := FlavorPowerShell.ChainCd(`C:\x`, "dir"); got != `cd "C:\x"; dir` {
		t.Fatalf("powershell chain: %q", got)
	}
	if got := FlavorCmd.ChainCd(`D:\y`, "dir"); got != `cd /d "D:\y" & dir` {
		t.Fatalf("cmd chain: %q", got)
	}
}

func TestHistoryInjection(t *testing.T) {
	t.Parallel()

	inj, reexec := FlavorBash.HistoryInjection("echo hello")
	if reexec || inj != "history -s -- 'echo hello'" {
		t.Fatalf("bash: %q reexec=%v", inj, reexec)
	}
	inj, _ = FlavorZsh.HistoryInjection("it's")
	if inj != `print -s -- 'it'\''s'` {
		t.Fatalf("zsh quoting: %q", inj)
	}
	inj, _ = FlavorFish.HistoryInjection("echo hi")
	if inj != "builtin history add -- 'echo hi'" {
		t.Fatalf("fish: %q", inj)
	}
	if _, reexec := FlavorPowerShell.HistoryInjection("dir"); !reexec {
		t.Fatal("powershell must re-execute")
	}
	if _, reexec := FlavorCmd.HistoryInjection("dir"); !reexec {
		t.Fatal("cmd must re-execute")
	}
	// Unknown Unix shells get the bash form.
	inj, reexec = FlavorPOSIX.HistoryInjection("ls")
	if reexec || !strings.HasPrefix(inj, "history -s") {
		t.Fatalf("posix fallback: %q", inj)
	}
}

func TestFlavorTerminalBehavior(t *testing.T) {
	t.Parallel()

	if FlavorPowerShell.ReplaysLog() {
		t.Fatal("powershell replay collides with the ConPTY buffer redraw")
	}
	if !FlavorBash.ReplaysLog() || !FlavorCmd.ReplaysLog() {
		t.Fatal("bash and cmd replay the captured log")
	}
	if FlavorBash.LineEnding() != "\n" || FlavorCmd.LineEnding() != "\r\n" {
		t.Fatal("line endings")
	}
	if string(FlavorZsh.PromptRedrawBytes()) != "\n" || FlavorPowerShell.PromptRedrawBytes() != nil {
		t.Fatal("prompt redraw bytes")
	}
	if env := FlavorFish.Env(); len(env) != 1 || env[0] != "fish_features=no-query-term" {
		t.Fatalf("fish env: %v", env)
	}
	if FlavorBash.Env() != nil {
		t.Fatal("bash needs no extra env")
	}
	if FlavorPowerShell.CommandFlag() != "-Command" || FlavorCmd.CommandFlag() != "/C" || FlavorBash.CommandFlag() != "-c" {
		t.Fatal("command flags")
	}
}

func TestNewCapture(t *testing.T) {
	t.Parallel()

	c := NewCapture("/bin/bash", "ls -la", "/tmp/cap1", false)
	if c.File != "/tmp/cap1" || c.DoneFile != "/tmp/cap1.done" {
		t.Fatalf("files: %+v", c)
	}
	if !strings.Contains(c.Wrapped, "script -q -c") || !strings.Contains(c.Wrapped, "'ls -la'") {
		t.Fatalf("linux wrap: %q", c.Wrapped)
	}
	if !strings.Contains(c.Wrapped, "touch '/tmp/cap1.done'") {
		t.Fatalf("done marker missing: %q", c.Wrapped)
	}

	c = NewCapture("/bin/zsh", "make", "/tmp/cap2", true)
	if !strings.HasPrefix(c.Wrapped, "script -q /tmp/cap2 /bin/zsh -ic") {
		t.Fatalf("bsd wrap: %q", c.Wrapped)
	}
}

func TestParseCaptureOutput(t *testing.T) {
	t.Parallel()

	content := "Script started on 2026-08-26\n" +
		"hello\r\n" +
		"0%\r50%\r100% done\n" +
		"\x1b[32mgreen\x1b[0m\n" +
		"\n" +
		"   \x1b[2K\n" +
		"Script done on 2026-08-26\n"
	got := ParseCaptureOutput(content)
	want := []string{"hello", "100% done", "\x1b[32mgreen\x1b[0m"}
	if len(got) != len(want) {
		t.Fatalf("parsed = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parsed[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := ParseCaptureOutput("\x1b[?1049hvim noise\x1b[?1049l"); got != nil {
		t.Fatalf("TUI capture should be discarded, got %q", got)
	}
}
