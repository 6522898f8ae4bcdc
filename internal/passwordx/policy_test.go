package passwordx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_EmptyFailsEverything(t *testing.T) {
	res := Evaluate("")
	require.Len(t, res, 5)
	for name, ok := range res {
		assert.False(t, ok, "constraint %s must fail for empty password", name)
	}
}

func TestEvaluate_AllSatisfied(t *testing.T) {
	res := Evaluate("Abcdefg1!")
	require.Len(t, res, 5)
	for name, ok := range res {
		assert.True(t, ok, "constraint %s must pass", name)
	}
}

func TestEvaluate_Individual(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     Constraints
	}{
		{"only lowercase short", "abc", Constraints{MinLength: false, Uppercase: false, Lowercase: true, Number: false, Special: false}},
		{"long lowercase", "abcdefgh", Constraints{MinLength: true, Uppercase: false, Lowercase: true, Number: false, Special: false}},
		{"digits and special", "12345678?", Constraints{MinLength: true, Uppercase: false, Lowercase: false, Number: true, Special: true}},
		{"whitespace only", "          ", Constraints{MinLength: true, Uppercase: false, Lowercase: false, Number: false, Special: false}},
		{"non ascii letters do not count", "ÄÖÜäöüßé", Constraints{MinLength: true, Uppercase: false, Lowercase: false, Number: false, Special: false}},
		{"unicode counted by runes", "日本語", Constraints{MinLength: false, Uppercase: false, Lowercase: false, Number: false, Special: false}},
		{"quote and braces are special", `A"{}`, Constraints{MinLength: false, Uppercase: true, Lowercase: false, Number: false, Special: true}},
		{"dash is not special", "Abcdefg1-", Constraints{MinLength: true, Uppercase: true, Lowercase: true, Number: true, Special: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.password))
		})
	}
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	for _, p := range []string{"", "x", "Abcdefg1!", "  \t", "пароль123"} {
		assert.Equal(t, Evaluate(p), Evaluate(p))
	}
}

func TestCheck(t *testing.T) {
	ok, failures := Check("")
	assert.False(t, ok)
	assert.Equal(t, []string{ErrRequired}, failures)

	ok, failures = Check("weak")
	assert.False(t, ok)
	assert.Equal(t, []string{
		"At least 8 characters",
		"One uppercase letter (A-Z)",
		"One number (0-9)",
		"One special character (!@#$%^&*)",
	}, failures)

	ok, failures = Check("Abcdefg1!")
	assert.True(t, ok)
	assert.Empty(t, failures)
}

func TestAll_ReturnsCopyInOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	assert.Equal(t, MinLength, all[0].Name)
	assert.Equal(t, Special, all[4].Name)

	all[0].Name = "mutated"
	assert.Equal(t, MinLength, All()[0].Name)
}
