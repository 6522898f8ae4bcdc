package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestSession_AccessExpiresAt(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	s := Session{AccessToken: mintToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})}

	got, ok := s.AccessExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestSession_AccessExpiresAt_Absent(t *testing.T) {
	_, ok := Session{}.AccessExpiresAt()
	assert.False(t, ok)

	_, ok = Session{AccessToken: "not-a-jwt"}.AccessExpiresAt()
	assert.False(t, ok)

	_, ok = Session{AccessToken: mintToken(t, jwt.RegisteredClaims{Subject: "1"})}.AccessExpiresAt()
	assert.False(t, ok)
}

func TestSession_IsEmpty(t *testing.T) {
	assert.True(t, Session{}.IsEmpty())
	assert.False(t, Session{RefreshToken: "r"}.IsEmpty())
	assert.False(t, Session{User: &User{}}.IsEmpty())
	assert.True(t, Session{AccessToken: "a"}.HasAccessToken())
}
