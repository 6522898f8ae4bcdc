package validation

// Signup form field names (as sent to the backend).
const (
	FieldFullName        = "full_name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// Password change form field names.
const (
	FieldCurrentPassword    = "currentPassword"
	FieldNewPassword        = "newPassword"
	FieldConfirmNewPassword = "confirmNewPassword"
)

// MsgSameAsCurrent is reported when the new password repeats the current one.
const MsgSameAsCurrent = "New password must be different from current password"

// SignupForm is the registration form.
type SignupForm struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// PasswordChangeForm is the password update form.
type PasswordChangeForm struct {
	CurrentPassword    string
	NewPassword        string
	ConfirmNewPassword string
}

// ProfileForm is the profile edit form.
type ProfileForm struct {
	FullName string
	Email    string
}

// ValidateSignup checks every field of the signup form.
func ValidateSignup(f SignupForm) Result {
	errs := FieldErrors{}
	set(errs, FieldFullName, ValidateRequired(f.FullName, "Full name"))
	set(errs, FieldEmail, ValidateEmail(f.Email))
	set(errs, FieldPassword, ValidatePassword(f.Password))
	set(errs, FieldConfirmPassword, ValidatePasswordMatch(f.Password, f.ConfirmPassword))
	return newResult(errs)
}

// ValidatePasswordChange checks the password update form. The "same as
// current" rule runs after the policy check and replaces its message.
func ValidatePasswordChange(f PasswordChangeForm) Result {
	errs := FieldErrors{}
	set(errs, FieldCurrentPassword, ValidateRequired(f.CurrentPassword, "Current password"))
	set(errs, FieldNewPassword, ValidatePassword(f.NewPassword))
	if f.CurrentPassword != "" && f.NewPassword != "" && f.CurrentPassword == f.NewPassword {
		errs[FieldNewPassword] = MsgSameAsCurrent
	}
	set(errs, FieldConfirmNewPassword, ValidatePasswordMatch(f.NewPassword, f.ConfirmNewPassword))
	return newResult(errs)
}

// ValidateProfile checks the profile edit form.
func ValidateProfile(f ProfileForm) Result {
	errs := FieldErrors{}
	set(errs, FieldFullName, ValidateRequired(f.FullName, "Full name"))
	set(errs, FieldEmail, ValidateEmail(f.Email))
	return newResult(errs)
}
