package cli

import (
	"context"

	"github.com/dmitrijs2005/usermanager/internal/client/validation"
)

// UpdateProfile changes the signed-in user's name and email. Empty arguments
// are prompted for, with the current value kept on a bare Enter.
func (a *App) UpdateProfile(ctx context.Context, fullName, email string, interactive bool) error {
	if err := a.enter(pathProfile); err != nil {
		return err
	}
	cur := a.auth.Snapshot().User
	form := validation.ProfileForm{FullName: fullName, Email: email}
	if cur != nil {
		if form.FullName == "" && !interactive {
			form.FullName = cur.FullName
		}
		if form.Email == "" && !interactive {
			form.Email = cur.Email
		}
	}
	if interactive {
		var curName, curEmail string
		if cur != nil {
			curName, curEmail = cur.FullName, cur.Email
		}
		var err error
		if form.FullName == "" {
			if form.FullName, err = getOptionalText(a.reader, "Full name", curName, a.out); err != nil {
				return err
			}
		}
		if form.Email == "" {
			if form.Email, err = getOptionalText(a.reader, "Email", curEmail, a.out); err != nil {
				return err
			}
		}
	}

	u, err := a.profile.UpdateProfile(ctx, form)
	if err != nil {
		return err
	}
	a.printf("Profile updated.\n")
	printUser(a.out, u)
	return nil
}

// ChangePassword prompts for the current and new password.
func (a *App) ChangePassword(ctx context.Context) error {
	if err := a.enter(pathProfile); err != nil {
		return err
	}

	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer clear(current)
	next, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer clear(next)
	printStrength(a.out, string(next))
	confirm, err := getPassword("Confirm new password", a.out)
	if err != nil {
		return err
	}
	defer clear(confirm)

	err = a.profile.ChangePassword(ctx, validation.PasswordChangeForm{
		CurrentPassword:    string(current),
		NewPassword:        string(next),
		ConfirmNewPassword: string(confirm),
	})
	if err != nil {
		return err
	}
	a.printf("Password changed.\n")
	return nil
}

// UploadPicture sets the profile picture from a local file.
func (a *App) UploadPicture(ctx context.Context, path string) error {
	if err := a.enter(pathProfile); err != nil {
		return err
	}
	u, err := a.profile.UploadPicture(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Profile picture updated: %s\n", u.ProfilePictureURL)
	return nil
}

// DeletePicture removes the profile picture.
func (a *App) DeletePicture(ctx context.Context) error {
	if err := a.enter(pathProfile); err != nil {
		return err
	}
	if _, err := a.profile.DeletePicture(ctx); err != nil {
		return err
	}
	a.printf("Profile picture removed.\n")
	return nil
}
