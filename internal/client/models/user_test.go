package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEnvelope_BareRecord(t *testing.T) {
	var env UserEnvelope
	err := json.Unmarshal([]byte(`{"id":7,"email":"a@b.io","full_name":"A","role":"USER","status":"ACTIVE"}`), &env)
	require.NoError(t, err)
	require.NotNil(t, env.User)
	assert.Equal(t, int64(7), env.User.ID)
	assert.Equal(t, RoleUser, env.User.Role)
	assert.Empty(t, env.Message)
}

func TestUserEnvelope_Wrapped(t *testing.T) {
	var env UserEnvelope
	err := json.Unmarshal([]byte(`{"message":"Profile updated successfully","user":{"id":3,"email":"x@y.io","role":"ADMIN","profile_picture_url":"http://cdn/p.png"}}`), &env)
	require.NoError(t, err)
	require.NotNil(t, env.User)
	assert.Equal(t, int64(3), env.User.ID)
	assert.True(t, env.User.IsAdmin())
	assert.True(t, env.User.HasPicture())
	assert.Equal(t, "Profile updated successfully", env.Message)
}

func TestUserEnvelope_Invalid(t *testing.T) {
	var env UserEnvelope
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &env))
}

func TestUserPatch_Apply(t *testing.T) {
	u := &User{ID: 1, Email: "old@x.io", FullName: "Old", Role: RoleUser, Status: StatusActive, ProfilePictureURL: "p.png"}

	name := "New"
	empty := ""
	got := UserPatch{FullName: &name, ProfilePictureURL: &empty}.Apply(u)

	assert.Equal(t, "New", got.FullName)
	assert.Equal(t, "old@x.io", got.Email)
	assert.False(t, got.HasPicture())
	// original untouched
	assert.Equal(t, "Old", u.FullName)
	assert.True(t, u.HasPicture())
}

func TestPatchFromUser_ReplacesMutableFields(t *testing.T) {
	cached := &User{ID: 1, Email: "a@x.io", Role: RoleUser}
	fresh := &User{ID: 1, Email: "b@x.io", Role: RoleAdmin, ProfilePictureURL: "p.png"}

	got := PatchFromUser(fresh).Apply(cached)
	assert.Equal(t, "b@x.io", got.Email)
	assert.Equal(t, RoleAdmin, got.Role)
	assert.Equal(t, "p.png", got.ProfilePictureURL)
}

func TestUser_HasAnyRole(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.HasAnyRole(RoleAdmin))
	assert.True(t, (&User{Role: RoleAdmin}).HasAnyRole(RoleUser, RoleAdmin))
	assert.False(t, (&User{Role: RoleUser}).HasAnyRole(RoleAdmin))
}

func TestUserPage_TotalPages(t *testing.T) {
	assert.Equal(t, 0, (&UserPage{Count: 0}).TotalPages(0))
	assert.Equal(t, 1, (&UserPage{Count: 10}).TotalPages(0))
	assert.Equal(t, 2, (&UserPage{Count: 11}).TotalPages(10))
	assert.Equal(t, 4, (&UserPage{Count: 7}).TotalPages(2))
}
