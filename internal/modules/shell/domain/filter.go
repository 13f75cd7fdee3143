package domain

import "strings"

// FilterDrained applies the return-from-visible filter to a drained batch:
// every InputTracked survives; an OutputLine survives only if it follows
// the first InputTracked in the batch, carries no cursor movement, and
// strips to more than one character. The boundary is "first InputTracked"
// because the reader and writer publish on separate goroutines and their
// interleaving is not ordered.
func FilterDrained(batch []Message) []Message {
	var kept []Message
	seenInput := false
	for _, m := range batch {
		switch msg := m.(type) {
		case InputTracked:
			seenInput = true
			kept = append(kept, msg)
		case OutputLine:
			if !seenInput {
				continue
			}
			if ContainsCursorMove(msg.Text) {
				continue
			}
			if len(StripANSI(msg.Text)) <= 1 {
				continue
			}
			kept = append(kept, msg)
		default:
			kept = append(kept, m)
		}
	}
	return kept
}

// IsBarePrompt recognizes the trailing prompt line ConPTY leaves behind on
// toggle: ends in ">" without an embedded space, or a PowerShell prompt.
func IsBarePrompt(line string) bool {
	clean := strings.TrimSpace(StripANSI(line))
	if clean == "" {
		return false
	}
	if strings.HasPrefix(clean, "PS ") {
		return true
	}
	return strings.HasSuffix(clean, ">") && !strings.Contains(clean, " ")
}
