package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the taxonomy every provider failure is forced into at the
// adapter seam. Raw wire strings never travel past it.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindTransport
	KindProtocol
	KindConfig
	KindAuth
	KindPasswordRequired
	KindNotFound
	KindPermission
	KindConnection
	KindInterrupted
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindPasswordRequired:
		return "password required"
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission"
	case KindConnection:
		return "connection"
	case KindInterrupted:
		return "interrupted"
	default:
		return "error"
	}
}

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// passwordRequiredPrefix marks a connect failure that should re-open the
// dialog in password-retry form instead of reporting an error.
const passwordRequiredPrefix = "PASSWORD_REQUIRED:"

// SplitPasswordRequired returns the human reason when msg carries the
// password-retry prefix.
func SplitPasswordRequired(msg string) (string, bool) {
	if !strings.HasPrefix(msg, passwordRequiredPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(msg, passwordRequiredPrefix)), true
}

// Classify maps a wire error onto the taxonomy. The PASSWORD_REQUIRED
// prefix wins over any declared error_type.
func Classify(errType, message string) *Error {
	if reason, ok := SplitPasswordRequired(message); ok {
		return &Error{Kind: KindPasswordRequired, Message: reason}
	}
	kind := KindOther
	switch strings.ToLower(errType) {
	case "auth":
		kind = KindAuth
	case "not_found":
		kind = KindNotFound
	case "permission":
		kind = KindPermission
	case "connection":
		kind = KindConnection
	}
	if kind == KindOther && LooksLikePasswordError(message) {
		kind = KindAuth
	}
	return &Error{Kind: kind, Message: message}
}

// passwordHints is the centralized heuristic for transports that report
// encryption or authentication failures as free text. The exact wording
// varies per tool, so matching is broad by intent.
var passwordHints = []string{
	"password",
	"passphrase",
	"encrypt",
	"badpassword",
	"authentication failed",
	"permission denied (publickey",
}

func LooksLikePasswordError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, hint := range passwordHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// IsKind reports whether err is a provider error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
