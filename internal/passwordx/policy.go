// Package passwordx evaluates candidate passwords against the fixed password
// policy shared by the signup and password-change forms, and derives a
// 0..5 strength score from the number of satisfied constraints.
//
// Every function in this package is pure: the same input always yields the
// same output and no input (empty, whitespace-only, non-ASCII) causes a panic.
package passwordx

import (
	"strings"
	"unicode/utf8"
)

// ConstraintName identifies one policy rule.
type ConstraintName string

const (
	MinLength ConstraintName = "minLength"
	Uppercase ConstraintName = "uppercase"
	Lowercase ConstraintName = "lowercase"
	Number    ConstraintName = "number"
	Special   ConstraintName = "special"
)

// MinPasswordLength is the minimal number of characters (runes).
const MinPasswordLength = 8

// SpecialCharacters is the set accepted by the Special constraint.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// ErrRequired is the message reported by Check for an empty password.
const ErrRequired = "Password is required"

// Constraint describes a single policy rule: its name, the user-facing
// checklist message and the predicate.
type Constraint struct {
	Name    ConstraintName
	Message string
	Test    func(password string) bool
}

// constraints is kept in checklist order; Check reports failures in this order.
var constraints = []Constraint{
	{
		Name:    MinLength,
		Message: "At least 8 characters",
		Test:    func(p string) bool { return utf8.RuneCountInString(p) >= MinPasswordLength },
	},
	{
		Name:    Uppercase,
		Message: "One uppercase letter (A-Z)",
		Test:    func(p string) bool { return containsRange(p, 'A', 'Z') },
	},
	{
		Name:    Lowercase,
		Message: "One lowercase letter (a-z)",
		Test:    func(p string) bool { return containsRange(p, 'a', 'z') },
	},
	{
		Name:    Number,
		Message: "One number (0-9)",
		Test:    func(p string) bool { return containsRange(p, '0', '9') },
	},
	{
		Name:    Special,
		Message: "One special character (!@#$%^&*)",
		Test:    func(p string) bool { return strings.ContainsAny(p, SpecialCharacters) },
	},
}

func containsRange(s string, lo, hi byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= lo && s[i] <= hi {
			return true
		}
	}
	return false
}

// All returns the policy constraints in checklist order.
func All() []Constraint {
	out := make([]Constraint, len(constraints))
	copy(out, constraints)
	return out
}

// Constraints maps each constraint name to its pass/fail result.
// A value produced by Evaluate always holds exactly five entries.
type Constraints map[ConstraintName]bool

// Passed returns the number of satisfied constraints.
func (c Constraints) Passed() int {
	n := 0
	for _, ok := range c {
		if ok {
			n++
		}
	}
	return n
}

// Evaluate runs every constraint against password. There is no
// short-circuiting, so callers can render a full checklist. An empty password
// fails all five constraints; whether a password is required at all is the
// caller's concern.
func Evaluate(password string) Constraints {
	res := make(Constraints, len(constraints))
	for _, c := range constraints {
		res[c.Name] = c.Test(password)
	}
	return res
}

// Check reports whether password satisfies the whole policy. failures holds
// the messages of the unmet constraints in checklist order; for an empty
// password it holds the single ErrRequired message.
func Check(password string) (ok bool, failures []string) {
	if password == "" {
		return false, []string{ErrRequired}
	}
	res := Evaluate(password)
	for _, c := range constraints {
		if !res[c.Name] {
			failures = append(failures, c.Message)
		}
	}
	return len(failures) == 0, failures
}
