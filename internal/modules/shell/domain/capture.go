package domain

import (
	"fmt"
	"strings"
)

// Capture describes one script(1)-wrapped command: the line to hand the
// interactive shell and the files that carry the output and the
// completion marker.
type Capture struct {
	Wrapped  string
	File     string
	DoneFile string
}

// NewCapture wraps cmd so its output is teed into file while the user
// still interacts with it. The shell runs with -ic so aliases load.
// bsdScript selects the macOS argument order, which has no -c flag.
func NewCapture(shellPath, cmd, file string, bsdScript bool) Capture {
	done := file + ".done"
	var wrapped string
	if bsdScript {
		wrapped = fmt.Sprintf("script -q %s %s -ic %s; touch %s",
			file, shellPath, QuotePOSIX(cmd), QuotePOSIX(done))
	} else {
		inner := fmt.Sprintf("%s -ic %s", QuotePOSIX(shellPath), QuotePOSIX(cmd))
		wrapped = fmt.Sprintf("script -q -c %s %s; touch %s",
			QuotePOSIX(inner), file, QuotePOSIX(done))
	}
	return Capture{Wrapped: wrapped, File: file, DoneFile: done}
}

// ParseCaptureOutput turns a finished capture file into log lines. TUI
// output is discarded wholesale; script(1) banners, blank lines, and
// progress-bar churn before the last carriage return are dropped. ANSI
// codes stay so colors survive in the log.
func ParseCaptureOutput(content string) []string {
	if IsTUIOutput(content) {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		// Progress indicators repaint with bare CRs; only the final
		// rendering is what the user last saw.
		if i := strings.LastIndexByte(line, '\r'); i >= 0 {
			line = line[i+1:]
		}
		clean := StripANSI(line)
		if strings.HasPrefix(clean, "Script started on ") || strings.HasPrefix(clean, "Script done on ") {
			continue
		}
		if strings.TrimSpace(clean) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
