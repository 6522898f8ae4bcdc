package passwordx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Table(t *testing.T) {
	tests := []struct {
		password string
		want     Strength
	}{
		{"", Strength{0, "Very Weak", ColorRed}},
		{"a", Strength{1, "Weak", ColorOrange}},
		{"aA", Strength{2, "Fair", ColorYellow}},
		{"aA1", Strength{3, "Good", ColorBlue}},
		{"aA1!", Strength{4, "Strong", ColorGreen}},
		{"Abcdefg1!", Strength{5, "Very Strong", ColorGreen}},
	}
	for _, tt := range tests {
		t.Run(tt.want.Label, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.password))
		})
	}
}

func TestScore_EqualsPassedCount(t *testing.T) {
	for _, p := range []string{"", " ", "password", "PASSWORD1", "Pa55word!", "ü", "\x00\xff"} {
		assert.Equal(t, Evaluate(p).Passed(), Score(p).Score, "password %q", p)
	}
}

func TestStrength_Bar(t *testing.T) {
	assert.Equal(t, "[-----]", Score("").Bar())
	assert.Equal(t, "[###--]", Score("aA1").Bar())
	assert.Equal(t, "[#####]", Score("Abcdefg1!").Bar())
}
