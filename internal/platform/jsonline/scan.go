package jsonline

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "bark/internal/platform/errors"
)

// Object is one decoded wire object with fields kept raw until asked for.
type Object map[string]json.RawMessage

// Parse decodes a single protocol line. Anything that is not a JSON object
// is a protocol violation.
func Parse(line string) (Object, error) {
	var obj Object
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return nil, fmt.Errorf("malformed protocol line: %w", apperrors.ErrInvalidInput)
	}
	return obj, nil
}

// Str returns the string value of key, or "" when absent or not a string.
func (o Object) Str(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

// Bool returns the boolean value of key, false when absent or mistyped.
func (o Object) Bool(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	return false
}

// Int returns the integer value of key. Numbers arriving as JSON strings
// are accepted, since provider plugins stringify values at the wire.
func (o Object) Int(key string) int64 {
	raw, ok := o[key]
	if !ok {
		return 0
	}
	var n int64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return int64(f)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}
	return 0
}

// Strings returns the string-array value of key, nil when absent.
func (o Object) Strings(key string) []string {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var ss []string
	if json.Unmarshal(raw, &ss) == nil {
		return ss
	}
	return nil
}

// Objects returns the object-array value of key, nil when absent.
func (o Object) Objects(key string) []Object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var objs []Object
	if json.Unmarshal(raw, &objs) == nil {
		return objs
	}
	return nil
}

// Has reports whether key is present at all, regardless of its type.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}
