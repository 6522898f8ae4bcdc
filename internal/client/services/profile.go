package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/usermanager/internal/client/client"
	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/client/validation"
	"github.com/dmitrijs2005/usermanager/internal/filex"
	"github.com/dmitrijs2005/usermanager/internal/logging"
	"github.com/gabriel-vasile/mimetype"
)

// MaxPictureSize is the largest accepted profile picture.
const MaxPictureSize = 5 << 20

// MsgCurrentPasswordIncorrect is reported on the current-password field when
// the backend rejects it.
const MsgCurrentPasswordIncorrect = "Current password is incorrect"

// AllowedPictureTypes are the accepted picture MIME types.
var AllowedPictureTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrUnsupportedPicture = errors.New("only JPEG, PNG and WebP images are allowed")
	ErrPictureTooLarge    = errors.New("image too large, max size is 5MB")
	ErrNoPicture          = errors.New("no profile picture to delete")
)

// CurrentUser is the part of AuthController the profile service needs.
type CurrentUser interface {
	Snapshot() models.Snapshot
	UpdateCurrentUser(ctx context.Context, patch models.UserPatch) (*models.User, error)
}

// ProfileService edits the signed-in user's own account. Local validation
// always runs before any request; backend field errors come back as
// *validation.Error keyed by form field.
type ProfileService struct {
	client client.Client
	auth   CurrentUser
	log    logging.Logger
}

func NewProfileService(c client.Client, auth CurrentUser, log logging.Logger) *ProfileService {
	if log == nil {
		log = logging.Nop()
	}
	return &ProfileService{client: c, auth: auth, log: log}
}

func (s *ProfileService) UpdateProfile(ctx context.Context, form validation.ProfileForm) (*models.User, error) {
	if err := validation.ValidateProfile(form).Err(); err != nil {
		return nil, err
	}

	u, err := s.client.UpdateProfile(ctx, strings.TrimSpace(form.FullName), strings.TrimSpace(form.Email))
	if err != nil {
		return nil, fieldErrors(err, nil, "update profile")
	}
	return s.auth.UpdateCurrentUser(ctx, models.PatchFromUser(u))
}

// ChangePassword validates form and submits it. A rejected current password
// is reported on the currentPassword field; backend field names are renamed
// to the form's.
func (s *ProfileService) ChangePassword(ctx context.Context, form validation.PasswordChangeForm) error {
	if err := validation.ValidatePasswordChange(form).Err(); err != nil {
		return err
	}

	err := s.client.ChangePassword(ctx, form.CurrentPassword, form.NewPassword)
	if err == nil {
		s.log.Info(ctx, "password changed")
		return nil
	}
	if errors.Is(err, client.ErrUnauthorized) {
		return &validation.Error{Fields: validation.FieldErrors{
			validation.FieldCurrentPassword: MsgCurrentPasswordIncorrect,
		}}
	}
	return fieldErrors(err, validation.PasswordChangeFieldNames, "change password")
}

// UploadPicture reads the image at path and uploads it.
func (s *ProfileService) UploadPicture(ctx context.Context, path string) (*models.User, error) {
	data, err := filex.ReadFileLimited(path, MaxPictureSize)
	if err != nil {
		if errors.Is(err, filex.ErrTooLarge) {
			return nil, ErrPictureTooLarge
		}
		return nil, fmt.Errorf("read picture: %w", err)
	}
	return s.UploadPictureBytes(ctx, filepath.Base(path), data)
}

// UploadPictureBytes checks the type by content, not by name, and uploads.
func (s *ProfileService) UploadPictureBytes(ctx context.Context, filename string, data []byte) (*models.User, error) {
	if len(data) > MaxPictureSize {
		return nil, ErrPictureTooLarge
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), AllowedPictureTypes...) {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedPicture, mt.String())
	}

	u, err := s.client.UploadProfilePicture(ctx, filename, data)
	if err != nil {
		return nil, fieldErrors(err, nil, "upload picture")
	}
	return s.auth.UpdateCurrentUser(ctx, models.PatchFromUser(u))
}

// DeletePicture removes the picture. It refuses without a request when the
// cached user has none.
func (s *ProfileService) DeletePicture(ctx context.Context) (*models.User, error) {
	snap := s.auth.Snapshot()
	if !snap.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if !snap.User.HasPicture() {
		return nil, ErrNoPicture
	}

	u, err := s.client.DeleteProfilePicture(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete picture: %w", err)
	}
	empty := ""
	patch := models.PatchFromUser(u)
	patch.ProfilePictureURL = &empty
	return s.auth.UpdateCurrentUser(ctx, patch)
}

// fieldErrors turns a backend 400 into a *validation.Error with fields
// renamed through table. Other errors are wrapped with op.
func fieldErrors(err error, table map[string]string, op string) error {
	var fe *client.FieldValidationError
	if errors.As(err, &fe) && len(fe.Fields) > 0 {
		return &validation.Error{Fields: validation.Rename(fe.Fields, table)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
