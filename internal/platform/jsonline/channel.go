// Package jsonline implements the line-delimited JSON wire format spoken by
// every plugin kind: one JSON object per line in both directions. The
// Channel frames requests and responses over a child's stdin/stdout; the
// Field helpers pull individual keys out of a response object while
// tolerating extra fields, which is all the additive protocol allows for.
package jsonline

import (
	"bufio"
	"errors"
	"io"
	"strings"

	apperrors "bark/internal/platform/errors"
)

// Channel is a request/response transport over a child process's pipes.
// It does not parse JSON and does not multiplex: callers serialize commands.
type Channel struct {
	w io.Writer
	r *bufio.Reader
}

func NewChannel(w io.Writer, r io.Reader) *Channel {
	return &Channel{w: w, r: bufio.NewReader(r)}
}

// Send writes one JSON object followed by a newline.
func (c *Channel) Send(payload []byte) error {
	if _, err := c.w.Write(payload); err != nil {
		return apperrors.ErrTransportClosed
	}
	if _, err := c.w.Write([]byte{'\n'}); err != nil {
		return apperrors.ErrTransportClosed
	}
	if f, ok := c.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return apperrors.ErrTransportClosed
		}
	}
	return nil
}

// RecvLine reads up to the next newline and returns the line with trailing
// CR/LF stripped. EOF surfaces as ErrTransportClosed; a line of pure
// whitespace surfaces as ErrEmptyResponse.
func (c *Channel) RecvLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", apperrors.ErrTransportClosed
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return "", apperrors.ErrEmptyResponse
	}
	return line, nil
}
