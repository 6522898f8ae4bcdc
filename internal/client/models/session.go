package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is a transient email/password pair. It is never persisted.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterProfile is the payload of the registration endpoint.
type RegisterProfile struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// TokenPair is a JWT access/refresh pair issued by the backend.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResult is what a successful login or registration yields.
type AuthResult struct {
	Tokens TokenPair
	User   *User
}

// Session is the locally persisted authentication state. An empty string
// means "absent" for both tokens.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// IsEmpty reports whether nothing is stored.
func (s Session) IsEmpty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// HasAccessToken reports whether an access token is present.
func (s Session) HasAccessToken() bool {
	return s.AccessToken != ""
}

// AccessExpiresAt decodes the exp claim of the access token without verifying
// its signature. The second result is false when the token is absent,
// malformed or carries no exp claim.
func (s Session) AccessExpiresAt() (time.Time, bool) {
	return TokenExpiresAt(s.AccessToken)
}

// TokenExpiresAt is AccessExpiresAt for a bare token string.
func TokenExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
