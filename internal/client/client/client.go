package client

import (
	"context"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
)

// Client is the contract of the user-management backend.
type Client interface {
	Login(ctx context.Context, cred models.Credential) (*models.AuthResult, error)
	Register(ctx context.Context, profile models.RegisterProfile) (*models.AuthResult, error)
	// Logout revokes the refresh token. The access token authenticates the
	// call; neither is read from the TokenStore.
	Logout(ctx context.Context, tokens models.TokenPair) error
	RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error)

	CurrentUser(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, fullName, email string) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	UploadProfilePicture(ctx context.Context, filename string, content []byte) (*models.User, error)
	DeleteProfilePicture(ctx context.Context) (*models.User, error)

	ListUsers(ctx context.Context, page int) (*models.UserPage, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ActivateUser(ctx context.Context, id int64) (*models.User, error)
	DeactivateUser(ctx context.Context, id int64) (*models.User, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// TokenStore supplies the bearer token and receives refreshed pairs.
// session.Store implements it.
//
// UpdateTokens must only install the pair while the stored refresh token
// still equals exchanged, and report false otherwise, so a refresh that
// completes after logout or a new login cannot resurrect the old session.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	UpdateTokens(ctx context.Context, exchanged, access, refresh string) (bool, error)
}
