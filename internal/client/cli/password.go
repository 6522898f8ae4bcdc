package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/usermanager/internal/client/guard"
	"github.com/dmitrijs2005/usermanager/internal/passwordx"
)

// CheckPassword prints the strength meter and the policy checklist for
// password, prompting for it when empty. It needs no session.
func (a *App) CheckPassword(_ context.Context, password string) error {
	return checkPassword(a.out, password)
}

func checkPassword(w io.Writer, password string) error {
	if password == "" {
		pw, err := getPassword("Password to check", w)
		if err != nil {
			return err
		}
		defer clear(pw)
		password = string(pw)
	}
	printChecklist(w, password)
	return nil
}

func printChecklist(w io.Writer, password string) {
	printStrength(w, password)
	res := passwordx.Evaluate(password)
	for _, c := range passwordx.All() {
		mark := " "
		if res[c.Name] {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, c.Message)
	}
}

func printStrength(w io.Writer, password string) {
	if password == "" {
		return
	}
	s := passwordx.Score(password)
	fmt.Fprintf(w, "Strength: %s %s (%d/%d)\n", s.Bar(), s.Label, s.Score, passwordx.MaxScore)
}

// Route shows where a navigation to path ends up in the current session
// state, without running anything.
func (a *App) Route(path string) error {
	want := guard.Normalize(path)
	landed, d := a.nav.Navigate(want)
	if landed == want {
		a.printf("%s: %s\n", want, d)
		return nil
	}
	a.printf("%s: redirected to %s (%s)\n", want, landed, d)
	if from := a.nav.ReturnTo(); from != "" {
		a.printf("after login: %s\n", from)
	}
	return nil
}
