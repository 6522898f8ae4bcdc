package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/usermanager/internal/client/client"
	"github.com/dmitrijs2005/usermanager/internal/client/guard"
	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/client/validation"
	"github.com/dmitrijs2005/usermanager/internal/passwordx"
)

// getSimpleText, getOptionalText and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getPassword     = GetPassword
)

// msgInvalidCredentials is shown on the password field when the backend
// rejects the credentials.
const msgInvalidCredentials = "Invalid email or password"

// Login prompts for whatever credentials were not given and signs in. After
// success the navigator returns to the page that required the login, if any.
func (a *App) Login(ctx context.Context, email string) error {
	if err := a.enter(guard.PathLogin); err != nil {
		return err
	}
	var err error
	if email == "" {
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	if msg := validation.ValidateEmail(email); msg != "" {
		return &validation.Error{Fields: validation.FieldErrors{validation.FieldEmail: msg}}
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer clear(password)
	if len(password) == 0 {
		return &validation.Error{Fields: validation.FieldErrors{validation.FieldPassword: passwordx.ErrRequired}}
	}

	u, err := a.auth.Login(ctx, models.Credential{Email: email, Password: string(password)})
	if errors.Is(err, client.ErrUnauthorized) {
		return &validation.Error{Fields: validation.FieldErrors{validation.FieldPassword: msgInvalidCredentials}}
	}
	if err != nil {
		return err
	}
	a.printf("Welcome, %s!\n", displayName(u))
	if path, _ := a.nav.Current(); path != guard.PathHome {
		a.printf("Returned to %s\n", path)
	}
	return nil
}

// Register prompts for the sign-up form, validates it locally and creates
// the account. The new session is established right away.
func (a *App) Register(ctx context.Context) error {
	if err := a.enter(guard.PathSignup); err != nil {
		return err
	}

	var (
		form validation.SignupForm
		err  error
	)
	if form.FullName, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	if form.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer clear(password)
	form.Password = string(password)
	printStrength(a.out, form.Password)

	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer clear(confirm)
	form.ConfirmPassword = string(confirm)

	if err := validation.ValidateSignup(form).Err(); err != nil {
		return err
	}

	u, err := a.auth.Register(ctx, models.RegisterProfile{
		Email:           form.Email,
		FullName:        form.FullName,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	a.printf("Account created. Welcome, %s!\n", displayName(u))
	return nil
}

// Logout ends the session locally; revoking it on the server is best effort.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in.\n")
		return nil
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

// WhoAmI reloads the signed-in user from the server and prints it.
func (a *App) WhoAmI(ctx context.Context) error {
	if err := a.enter(pathProfile); err != nil {
		return err
	}
	u, err := a.auth.RefreshCurrentUser(ctx)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

func displayName(u *models.User) string {
	if u == nil {
		return "user"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "ID:         %d\n", u.ID)
	fmt.Fprintf(w, "Name:       %s\n", u.FullName)
	fmt.Fprintf(w, "Email:      %s\n", u.Email)
	fmt.Fprintf(w, "Role:       %s\n", u.Role)
	fmt.Fprintf(w, "Status:     %s\n", u.Status)
	if u.HasPicture() {
		fmt.Fprintf(w, "Picture:    %s\n", u.ProfilePictureURL)
	}
	fmt.Fprintf(w, "Joined:     %s\n", formatTime(u.CreatedAt))
	fmt.Fprintf(w, "Last login: %s\n", formatTime(u.LastLogin))
}
