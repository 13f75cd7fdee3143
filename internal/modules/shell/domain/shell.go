package domain

import (
	"fmt"
	"strings"
)

// Flavor is the shell family, which decides command chaining, history
// injection, and line endings.
type Flavor int

const (
	FlavorPOSIX Flavor = iota
	FlavorBash
	FlavorZsh
	FlavorFish
	FlavorPowerShell
	FlavorCmd
)

func DetectFlavor(shellPath string) Flavor {
	lower := strings.ToLower(shellPath)
	switch {
	case strings.Contains(lower, "bash"):
		return FlavorBash
	case strings.Contains(lower, "zsh"):
		return FlavorZsh
	case strings.Contains(lower, "fish"):
		return FlavorFish
	case strings.Contains(lower, "powershell") || strings.Contains(lower, "pwsh"):
		return FlavorPowerShell
	case strings.Contains(lower, "cmd"):
		return FlavorCmd
	default:
		return FlavorPOSIX
	}
}

// LineEnding is what Enter looks like to the shell. ConPTY shells need CR
// to recognize Enter; LF alone is not enough for cmd.exe or PowerShell.
func (f Flavor) LineEnding() string {
	if f == FlavorPowerShell || f == FlavorCmd {
		return "\r\n"
	}
	return "\n"
}

// ChainCd builds the one-line "change directory, then run" form so only a
// single prompt is printed.
func (f Flavor) ChainCd(cwd, cmd string) string {
	switch f {
	case FlavorPowerShell:
		return fmt.Sprintf("cd %s; %s", QuoteWindows(cwd), cmd)
	case FlavorCmd:
		return fmt.Sprintf("cd /d %s & %s", QuoteWindows(cwd), cmd)
	default:
		return fmt.Sprintf("cd %s && %s", QuotePOSIX(cwd), cmd)
	}
}

// HistoryInjection returns the silent history-append command for the
// flavor. reexec reports that no such mechanism exists and the command
// must be re-run with output suppressed so it lands in native history.
func (f Flavor) HistoryInjection(cmd string) (injection string, reexec bool) {
	switch f {
	case FlavorZsh:
		return fmt.Sprintf("print -s -- %s", QuotePOSIX(cmd)), false
	case FlavorFish:
		return fmt.Sprintf("builtin history add -- '%s'", strings.ReplaceAll(cmd, "'", `\'`)), false
	case FlavorPowerShell, FlavorCmd:
		// PSReadLine's AddToHistory is unreliable inside ConPTY and
		// cmd.exe has nothing; re-execution is the only way in.
		return "", true
	default:
		// bash and unknown Unix shells: history -s appends without running.
		return fmt.Sprintf("history -s -- %s", QuotePOSIX(cmd)), false
	}
}

// ReplaysLog reports whether the captured log should be printed to the
// primary screen when toggling to visible mode. PowerShell redraws its
// ConPTY virtual buffer on activation and would overwrite the replay.
func (f Flavor) ReplaysLog() bool {
	return f != FlavorPowerShell
}

// PromptRedrawBytes is sent right after the toggle so the shell paints a
// fresh prompt. ConPTY shells refresh on their own.
func (f Flavor) PromptRedrawBytes() []byte {
	if f == FlavorPowerShell || f == FlavorCmd {
		return nil
	}
	return []byte("\n")
}

// Env returns extra environment entries the shell needs under a PTY.
// Fish 4.1+ probes terminal attributes on startup and hangs when nothing
// answers.
func (f Flavor) Env() []string {
	if f == FlavorFish {
		return []string{"fish_features=no-query-term"}
	}
	return nil
}

// CommandFlag is the argument that makes the shell run one command.
func (f Flavor) CommandFlag() string {
	switch f {
	case FlavorPowerShell:
		return "-Command"
	case FlavorCmd:
		return "/C"
	default:
		return "-c"
	}
}

// QuotePOSIX single-quotes a string for POSIX shells.
func QuotePOSIX(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteWindows double-quotes a string for cmd.exe and PowerShell.
func QuoteWindows(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
