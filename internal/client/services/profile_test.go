package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/usermanager/internal/client/client"
	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/client/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func signedIn(t *testing.T, fc *fakeClient, u *models.User) (*ProfileService, *AuthController, *memStore) {
	t.Helper()
	st := &memStore{sess: models.Session{AccessToken: "a", RefreshToken: "r", User: u}}
	a := NewAuthController(fc, st, nil)
	require.NoError(t, a.Init(context.Background()))
	return NewProfileService(fc, a, nil), a, st
}

func requireFields(t *testing.T, err error) validation.FieldErrors {
	t.Helper()
	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func TestUpdateProfile_LocalValidationBlocksRequest(t *testing.T) {
	fc := &fakeClient{}
	p, _, _ := signedIn(t, fc, annUser())

	_, err := p.UpdateProfile(context.Background(), validation.ProfileForm{FullName: " ", Email: "bad"})
	fields := requireFields(t, err)
	assert.Contains(t, fields, validation.FieldFullName)
	assert.Contains(t, fields, validation.FieldEmail)
	assert.Empty(t, fc.Calls())
}

func TestUpdateProfile_UpdatesCache(t *testing.T) {
	fc := &fakeClient{updateProfile: func(_ context.Context, name, email string) (*models.User, error) {
		assert.Equal(t, "Ann B", name)
		u := annUser()
		u.FullName, u.Email = name, email
		return u, nil
	}}
	p, a, st := signedIn(t, fc, annUser())

	u, err := p.UpdateProfile(context.Background(), validation.ProfileForm{FullName: " Ann B ", Email: "annb@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "annb@example.com", u.Email)
	assert.Equal(t, "Ann B", a.Snapshot().User.FullName)
	assert.Equal(t, "annb@example.com", st.Session().User.Email)
}

func TestUpdateProfile_BackendFieldErrors(t *testing.T) {
	fc := &fakeClient{updateProfile: func(context.Context, string, string) (*models.User, error) {
		return nil, &client.FieldValidationError{Fields: map[string]string{"email": "Email already in use."}}
	}}
	p, _, _ := signedIn(t, fc, annUser())

	_, err := p.UpdateProfile(context.Background(), validation.ProfileForm{FullName: "Ann", Email: "bob@example.com"})
	assert.Equal(t, validation.FieldErrors{"email": "Email already in use."}, requireFields(t, err))
}

func TestChangePassword(t *testing.T) {
	valid := validation.PasswordChangeForm{CurrentPassword: "Secret1!", NewPassword: "Better2@", ConfirmNewPassword: "Better2@"}

	t.Run("same as current is rejected locally", func(t *testing.T) {
		fc := &fakeClient{}
		p, _, _ := signedIn(t, fc, annUser())
		err := p.ChangePassword(context.Background(), validation.PasswordChangeForm{
			CurrentPassword: "Abcdefg1!", NewPassword: "Abcdefg1!", ConfirmNewPassword: "Abcdefg1!",
		})
		assert.Equal(t, validation.MsgSameAsCurrent, requireFields(t, err)[validation.FieldNewPassword])
		assert.Empty(t, fc.Calls())
	})

	t.Run("success", func(t *testing.T) {
		fc := &fakeClient{changePassword: func(_ context.Context, oldPw, newPw string) error {
			assert.Equal(t, "Secret1!", oldPw)
			assert.Equal(t, "Better2@", newPw)
			return nil
		}}
		p, _, _ := signedIn(t, fc, annUser())
		require.NoError(t, p.ChangePassword(context.Background(), valid))
	})

	t.Run("401 marks current password", func(t *testing.T) {
		fc := &fakeClient{changePassword: func(context.Context, string, string) error { return client.ErrUnauthorized }}
		p, a, _ := signedIn(t, fc, annUser())
		err := p.ChangePassword(context.Background(), valid)
		assert.Equal(t, validation.FieldErrors{validation.FieldCurrentPassword: MsgCurrentPasswordIncorrect}, requireFields(t, err))
		assert.True(t, a.Snapshot().IsAuthenticated())
	})

	t.Run("400 fields are renamed", func(t *testing.T) {
		fc := &fakeClient{changePassword: func(context.Context, string, string) error {
			return &client.FieldValidationError{Fields: map[string]string{
				"old_password": "Old password is incorrect.",
				"new_password": "This password is too common.",
			}}
		}}
		p, _, _ := signedIn(t, fc, annUser())
		err := p.ChangePassword(context.Background(), valid)
		assert.Equal(t, validation.FieldErrors{
			validation.FieldCurrentPassword: "Old password is incorrect.",
			validation.FieldNewPassword:     "This password is too common.",
		}, requireFields(t, err))
	})

	t.Run("server error passes through", func(t *testing.T) {
		fc := &fakeClient{changePassword: func(context.Context, string, string) error { return client.ErrServer }}
		p, _, _ := signedIn(t, fc, annUser())
		err := p.ChangePassword(context.Background(), valid)
		require.ErrorIs(t, err, client.ErrServer)
		var ve *validation.Error
		assert.False(t, errors.As(err, &ve))
	})
}

func TestUploadPicture(t *testing.T) {
	fc := &fakeClient{upload: func(_ context.Context, name string, data []byte) (*models.User, error) {
		assert.Equal(t, "me.png", name)
		assert.Equal(t, pngBytes, data)
		u := annUser()
		u.ProfilePictureURL = "http://cdn/me.png"
		return u, nil
	}}
	p, a, st := signedIn(t, fc, annUser())

	u, err := p.UploadPicture(context.Background(), writeTemp(t, "me.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, u.HasPicture())
	assert.True(t, a.Snapshot().User.HasPicture())
	assert.True(t, st.Session().User.HasPicture())
}

func TestUploadPicture_Rejections(t *testing.T) {
	fc := &fakeClient{}
	p, _, _ := signedIn(t, fc, annUser())
	ctx := context.Background()

	_, err := p.UploadPicture(ctx, writeTemp(t, "fake.png", []byte("just some text")))
	require.ErrorIs(t, err, ErrUnsupportedPicture)

	big := append(append([]byte{}, pngBytes...), make([]byte, MaxPictureSize)...)
	_, err = p.UploadPicture(ctx, writeTemp(t, "big.png", big))
	require.ErrorIs(t, err, ErrPictureTooLarge)

	_, err = p.UploadPictureBytes(ctx, "big.png", big)
	require.ErrorIs(t, err, ErrPictureTooLarge)

	_, err = p.UploadPicture(ctx, "/does/not/exist.png")
	require.ErrorContains(t, err, "read picture")

	assert.Empty(t, fc.Calls())
}

func TestDeletePicture(t *testing.T) {
	withPic := annUser()
	withPic.ProfilePictureURL = "http://cdn/me.png"

	fc := &fakeClient{deletePicture: func(context.Context) (*models.User, error) {
		return annUser(), nil
	}}
	p, a, st := signedIn(t, fc, withPic)

	u, err := p.DeletePicture(context.Background())
	require.NoError(t, err)
	assert.False(t, u.HasPicture())
	assert.False(t, a.Snapshot().User.HasPicture())
	assert.False(t, st.Session().User.HasPicture())

	_, err = p.DeletePicture(context.Background())
	require.ErrorIs(t, err, ErrNoPicture)
	assert.Equal(t, []string{"DeleteProfilePicture"}, fc.Calls())
}

func TestDeletePicture_RequiresSession(t *testing.T) {
	a := NewAuthController(&fakeClient{}, &memStore{}, nil)
	require.NoError(t, a.Init(context.Background()))
	p := NewProfileService(&fakeClient{}, a, nil)

	_, err := p.DeletePicture(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
