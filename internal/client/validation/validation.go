// Package validation holds the client-side form validators. Validators never
// fail: they always return a Result with the complete per-field error map so
// the caller can decide which errors to surface.
package validation

import (
	"maps"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrijs2005/usermanager/internal/passwordx"
)

// FieldErrors maps a form field name to its error message. An absent key
// means the field is valid.
type FieldErrors map[string]string

// Fields returns the field names in sorted order.
func (f FieldErrors) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Result is the outcome of validating a form.
type Result struct {
	Valid  bool
	Errors FieldErrors
}

func newResult(errs FieldErrors) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Err returns nil for a valid result and a *Error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Fields: maps.Clone(r.Errors)}
}

// Touched narrows r to the fields the user has interacted with. Validity is
// preserved: a form with errors on untouched fields is still invalid.
func Touched(r Result, touched map[string]bool) Result {
	out := Result{Valid: r.Valid, Errors: FieldErrors{}}
	for k, v := range r.Errors {
		if touched[k] {
			out.Errors[k] = v
		}
	}
	return out
}

var emailRe = regexp.MustCompile(`(?i)^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail returns an error message or "" for a well-formed address.
func ValidateEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !emailRe.MatchString(email) {
		return "Invalid email format"
	}
	return ""
}

// ValidateRequired returns "<label> is required" for blank values.
func ValidateRequired(value, label string) string {
	if strings.TrimSpace(value) == "" {
		return label + " is required"
	}
	return ""
}

// ValidatePasswordMatch checks a confirmation field against the original.
func ValidatePasswordMatch(password, confirm string) string {
	if confirm == "" {
		return "Please confirm your password"
	}
	if password != confirm {
		return "Passwords do not match"
	}
	return ""
}

// ValidatePassword returns the first unmet policy message or "".
func ValidatePassword(password string) string {
	if ok, failures := passwordx.Check(password); !ok {
		return failures[0]
	}
	return ""
}

func set(errs FieldErrors, field, msg string) {
	if msg != "" {
		errs[field] = msg
	}
}
