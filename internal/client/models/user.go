// Package models defines client-side data models used by the user-management
// CLI: the user record mirrored from the backend, the locally persisted
// session, authentication state snapshots and admin statistics.
package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Status is the activation status of a user account.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// User is the user record as returned by the backend.
type User struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Role              Role       `json:"role"`
	Status            Status     `json:"status"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasAnyRole reports whether the user holds one of roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	return slices.Contains(roles, u.Role)
}

// HasPicture reports whether a profile picture is set.
func (u *User) HasPicture() bool {
	return u != nil && u.ProfilePictureURL != ""
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.LastLogin = cloneTime(u.LastLogin)
	c.CreatedAt = cloneTime(u.CreatedAt)
	c.UpdatedAt = cloneTime(u.UpdatedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// UserPatch is a partial update of the cached user record. Nil fields are
// left untouched; a non-nil empty ProfilePictureURL removes the picture.
type UserPatch struct {
	Email             *string
	FullName          *string
	Role              *Role
	Status            *Status
	ProfilePictureURL *string
}

// PatchFromUser builds a patch that replaces every mutable field with the
// values of u.
func PatchFromUser(u *User) UserPatch {
	if u == nil {
		return UserPatch{}
	}
	return UserPatch{
		Email:             &u.Email,
		FullName:          &u.FullName,
		Role:              &u.Role,
		Status:            &u.Status,
		ProfilePictureURL: &u.ProfilePictureURL,
	}
}

// Apply merges p into a copy of u and returns it.
func (p UserPatch) Apply(u *User) *User {
	out := u.Clone()
	if out == nil {
		out = &User{}
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.FullName != nil {
		out.FullName = *p.FullName
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.ProfilePictureURL != nil {
		out.ProfilePictureURL = *p.ProfilePictureURL
	}
	return out
}

// UserEnvelope accepts both a bare user record and the {"user": ..., "message": ...}
// wrapper some endpoints respond with.
type UserEnvelope struct {
	User    *User
	Message string
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *UserEnvelope) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		User    json.RawMessage `json:"user"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	e.Message = wrapped.Message

	raw := data
	if len(wrapped.User) > 0 && !bytes.Equal(wrapped.User, []byte("null")) {
		raw = wrapped.User
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return err
	}
	e.User = &u
	return nil
}
