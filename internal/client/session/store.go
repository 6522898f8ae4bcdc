// Package session persists the authenticated session of the CLI between
// runs. It keeps three entries in the metadata table of the local database.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/usermanager/internal/dbx"
	"github.com/dmitrijs2005/usermanager/internal/logging"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

var sessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Store reads and writes the session. Save and Clear run in a single
// transaction so a reader never observes a half-written session.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

func NewStore(db *sql.DB, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{db: db, log: log}
}

func (s *Store) repo(tx dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

// Save replaces the stored session. Empty tokens and a nil user remove the
// corresponding entry.
func (s *Store) Save(ctx context.Context, sess models.Session) error {
	var userJSON []byte
	if sess.User != nil {
		b, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		userJSON = b
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := putOrDelete(ctx, r, KeyAccessToken, []byte(sess.AccessToken)); err != nil {
			return err
		}
		if err := putOrDelete(ctx, r, KeyRefreshToken, []byte(sess.RefreshToken)); err != nil {
			return err
		}
		return putOrDelete(ctx, r, KeyUser, userJSON)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns whatever is stored. A corrupt user entry is reported as a nil
// user; the tokens are still returned.
func (s *Store) Load(ctx context.Context) (models.Session, error) {
	values, err := s.repo(s.db).GetMany(ctx, sessionKeys...)
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}

	sess := models.Session{
		AccessToken:  string(values[KeyAccessToken]),
		RefreshToken: string(values[KeyRefreshToken]),
	}

	if raw := values[KeyUser]; len(raw) > 0 {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			s.log.Warn(ctx, "stored user record is corrupt, ignoring", "error", err)
		} else {
			sess.User = &u
		}
	}
	return sess, nil
}

// Clear removes all three entries. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).DeleteKeys(ctx, sessionKeys...)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// HasAccessToken reports whether an access token is stored. Read errors are
// logged and count as "no token".
func (s *Store) HasAccessToken(ctx context.Context) bool {
	v, err := s.repo(s.db).Get(ctx, KeyAccessToken)
	if err != nil {
		s.log.Warn(ctx, "cannot read access token", "error", err)
		return false
	}
	return len(v) > 0
}

// SaveUser replaces only the cached user record.
func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	var raw []byte
	if u != nil {
		b, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		raw = b
	}
	if err := putOrDelete(ctx, s.repo(s.db), KeyUser, raw); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Tokens returns the stored access and refresh tokens.
func (s *Store) Tokens(ctx context.Context) (access, refresh string, err error) {
	values, err := s.repo(s.db).GetMany(ctx, KeyAccessToken, KeyRefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("load tokens: %w", err)
	}
	return string(values[KeyAccessToken]), string(values[KeyRefreshToken]), nil
}

// UpdateTokens installs a refreshed token pair, leaving the user record
// alone. exchanged is the refresh token the pair was obtained with: when the
// stored refresh token no longer matches it (the session was cleared or
// replaced meanwhile) nothing is written and false is returned. An empty
// refresh keeps the stored one, since refresh responses may omit it.
func (s *Store) UpdateTokens(ctx context.Context, exchanged, access, refresh string) (bool, error) {
	var swapped bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		current, err := r.Get(ctx, KeyRefreshToken)
		if err != nil {
			return err
		}
		if exchanged == "" || string(current) != exchanged {
			return nil
		}
		if err := putOrDelete(ctx, r, KeyAccessToken, []byte(access)); err != nil {
			return err
		}
		if refresh != "" {
			if err := r.Set(ctx, KeyRefreshToken, []byte(refresh)); err != nil {
				return err
			}
		}
		swapped = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update tokens: %w", err)
	}
	return swapped, nil
}

func putOrDelete(ctx context.Context, r metadata.Repository, key string, value []byte) error {
	if len(value) == 0 {
		return r.Delete(ctx, key)
	}
	return r.Set(ctx, key, value)
}
