package domain

import "strings"

// StripANSI removes CSI and OSC escape sequences and carriage returns.
// Used to decide whether a line has visible content; the original bytes
// are kept for display so colors survive.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\x1b' && i+1 < len(runes) {
			switch runes[i+1] {
			case '[':
				i += 2
				for i < len(runes) {
					ch := runes[i]
					if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '~' {
						break
					}
					i++
				}
				continue
			case ']':
				// OSC: runs to BEL or ST.
				i += 2
				for i < len(runes) {
					if runes[i] == '\x07' {
						break
					}
					if runes[i] == '\x1b' && i+1 < len(runes) && runes[i+1] == '\\' {
						i++
						break
					}
					i++
				}
				continue
			}
		}
		if c == '\r' {
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// cursorFinals are CSI final bytes that move the cursor; their presence in
// a drained line marks it as prompt-rendering noise.
const cursorFinals = "HABCDEFGdf"

// ContainsCursorMove reports whether a line carries a cursor-movement CSI
// sequence.
func ContainsCursorMove(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '\x1b' || s[i+1] != '[' {
			continue
		}
		j := i + 2
		for j < len(s) && (isDigit(s[j]) || s[j] == ';' || s[j] == '?') {
			j++
		}
		if j < len(s) && strings.IndexByte(cursorFinals, s[j]) >= 0 {
			return true
		}
	}
	return false
}

// SplitOnCursorPos splits ConPTY output on absolute cursor-position
// sequences (ESC[row;colH), which ConPTY emits in place of newlines.
func SplitOnCursorPos(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			csiStart := i
			i += 2
			for i < len(s) && (isDigit(s[i]) || s[i] == ';' || s[i] == '?') {
				i++
			}
			if i < len(s) && s[i] == 'H' {
				if csiStart > start {
					parts = append(parts, s[start:csiStart])
				}
				i++
				start = i
				continue
			}
			if i < len(s) {
				i++
			}
			continue
		}
		i++
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	if len(parts) == 0 && s != "" {
		parts = append(parts, s)
	}
	return parts
}

// IsTUIOutput reports whether captured output came from a full-screen
// program: alternate-screen switches, full clears, or a terminal reset.
// Such captures are discarded wholesale.
func IsTUIOutput(content string) bool {
	for _, marker := range []string{
		"\x1b[?1049l", "\x1b[?1049h",
		"\x1b[?47l", "\x1b[?47h",
		"\x1b[2J", "\x1bc", "\x1b[H\x1b[J",
	} {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
