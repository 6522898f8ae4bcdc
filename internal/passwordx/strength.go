package passwordx

// Color is the indicator color attached to a strength level.
type Color string

const (
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
)

// Strength is the derived score of a password.
type Strength struct {
	Score int
	Label string
	Color Color
}

// MaxScore is the score of a password that passes every constraint.
const MaxScore = 5

var strengthLevels = [MaxScore + 1]struct {
	label string
	color Color
}{
	{"Very Weak", ColorRed},
	{"Weak", ColorOrange},
	{"Fair", ColorYellow},
	{"Good", ColorBlue},
	{"Strong", ColorGreen},
	{"Very Strong", ColorGreen},
}

// Score counts the satisfied constraints and maps the count through the
// fixed label/color table.
func Score(password string) Strength {
	n := Evaluate(password).Passed()
	lvl := strengthLevels[n]
	return Strength{Score: n, Label: lvl.label, Color: lvl.color}
}

// Bar renders the score as a fixed-width gauge, e.g. "[###--]".
func (s Strength) Bar() string {
	b := make([]byte, 0, MaxScore+2)
	b = append(b, '[')
	for i := 0; i < MaxScore; i++ {
		if i < s.Score {
			b = append(b, '#')
		} else {
			b = append(b, '-')
		}
	}
	return string(append(b, ']'))
}
