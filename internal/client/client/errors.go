package client

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnavailable means the backend could not be reached at all.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized is a 401: bad credentials or a dead session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is a 403 on a role-gated endpoint.
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
	// ErrServer is any 5xx or an unreadable response.
	ErrServer = errors.New("server error")
)

// oops codes attached at the transport boundary.
const (
	CodeUnavailable  = "BACKEND_UNAVAILABLE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "FIELD_VALIDATION"
	CodeServer       = "SERVER_ERROR"
)

// Keys under which the backend reports errors not bound to a field.
var nonFieldKeys = []string{"detail", "error", "non_field_errors"}

// FieldValidationError is a 400 response with a field-keyed payload. Only the
// first message of every field is kept.
type FieldValidationError struct {
	Fields map[string]string
}

func (e *FieldValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// Message returns the message not tied to any field, if the backend sent one.
func (e *FieldValidationError) Message() string {
	for _, k := range nonFieldKeys {
		if m, ok := e.Fields[k]; ok {
			return m
		}
	}
	return ""
}

// parseFieldErrors decodes a DRF style error body. Values may be strings,
// lists of strings or nested objects; anything else is ignored.
func parseFieldErrors(body []byte) map[string]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return map[string]string{}
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if msg := firstMessage(v); msg != "" {
			fields[k] = msg
		}
	}
	return fields
}

func firstMessage(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(v, &list); err == nil {
		for _, item := range list {
			if m := firstMessage(item); m != "" {
				return m
			}
		}
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if m := firstMessage(obj[k]); m != "" {
				return m
			}
		}
	}
	return ""
}

// detailMessage extracts a human message from a non-400 error body.
func detailMessage(body []byte) string {
	fields := parseFieldErrors(body)
	for _, k := range nonFieldKeys {
		if m, ok := fields[k]; ok {
			return m
		}
	}
	return ""
}
