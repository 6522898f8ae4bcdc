package validation

import (
	"fmt"
	"strings"
)

// Error carries field-scoped validation failures, either detected locally or
// returned by the backend and renamed into form field names.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range e.Fields.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PasswordChangeFieldNames maps backend field names of the change-password
// endpoint to the form field names.
var PasswordChangeFieldNames = map[string]string{
	"old_password": FieldCurrentPassword,
	"new_password": FieldNewPassword,
}

// Rename translates backend field names through table. Fields missing from
// the table keep their name.
func Rename(fields map[string]string, table map[string]string) FieldErrors {
	out := make(FieldErrors, len(fields))
	for k, v := range fields {
		if renamed, ok := table[k]; ok {
			k = renamed
		}
		out[k] = v
	}
	return out
}
