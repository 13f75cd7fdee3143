package domain

import "strings"

const historyRecallPlaceholder = "(bark: command recalled from shell history)"

type escState int

const (
	escNone escState = iota
	escSeen          // saw ESC, deciding
	escBody          // inside a CSI/SS3 body
)

// InputTracker reconstructs typed command lines from forwarded keystrokes.
// Fancy prompts redraw with cursor addressing, which makes capturing the
// command from PTY output impossible; the raw input stream is the only
// reliable record. ASCII only: anything fancier is someone editing with
// arrows, which history recall covers.
type InputTracker struct {
	buf         strings.Builder
	esc         escState
	usedHistory bool
}

// Feed consumes forwarded bytes and returns reconstructed command lines,
// one per Enter press, already prefixed with the working directory.
func (t *InputTracker) Feed(data []byte, cwd string) []InputTracked {
	var emitted []InputTracked
	for _, b := range data {
		if t.esc == escSeen {
			if b == '[' || b == 'O' {
				t.esc = escBody
			} else {
				t.esc = escNone
			}
			continue
		}
		if t.esc == escBody {
			if isCSITerminator(b) {
				if b == 'A' || b == 'B' {
					// Arrow up/down: the shell is navigating its own
					// history and our buffer no longer reflects the line.
					t.usedHistory = true
					t.buf.Reset()
				}
				t.esc = escNone
			}
			continue
		}

		switch {
		case b == '\r' || b == '\n':
			cmd := t.buf.String()
			if cmd == "" && t.usedHistory {
				cmd = historyRecallPlaceholder
			}
			t.buf.Reset()
			t.usedHistory = false
			if cmd != "" {
				emitted = append(emitted, InputTracked{Text: PromptLine(cwd, cmd)})
			}
		case b == 0x7f || b == 0x08:
			t.popRune()
		case b == 0x15: // Ctrl+U
			t.buf.Reset()
		case b == 0x17: // Ctrl+W
			t.popWord()
		case b == 0x1b:
			t.esc = escSeen
		case b >= 0x20 && b < 0x7f:
			t.buf.WriteByte(b)
		default:
			// Other control bytes (Ctrl+C, Ctrl+D, ...) are not line input.
		}
	}
	return emitted
}

// PromptLine is the log form of a captured command.
func PromptLine(cwd, cmd string) string {
	if cwd == "" {
		return "> " + cmd
	}
	return cwd + "> " + cmd
}

func isCSITerminator(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '~'
}

func (t *InputTracker) popRune() {
	s := t.buf.String()
	if s == "" {
		return
	}
	t.buf.Reset()
	t.buf.WriteString(s[:len(s)-1])
}

func (t *InputTracker) popWord() {
	s := strings.TrimRight(t.buf.String(), " ")
	t.buf.Reset()
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		t.buf.WriteString(s[:i+1])
	}
}
