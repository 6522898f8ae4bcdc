// Package services contains the application services of the usermanager
// client: the authentication session controller, profile management and the
// admin console. They sit between the CLI and the backend client.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/usermanager/internal/client/client"
	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/logging"
)

var (
	// ErrSuperseded is returned by an operation whose result was discarded
	// because a later login, registration or logout took effect first.
	ErrSuperseded = errors.New("superseded by a newer session operation")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrIncompleteResponse is returned when a login or registration
	// response carries no user record. No session is established.
	ErrIncompleteResponse = errors.New("server response has no user record")
)

// SessionStore is the persistence the controller needs. session.Store
// implements it.
type SessionStore interface {
	Save(ctx context.Context, s models.Session) error
	Load(ctx context.Context) (models.Session, error)
	Clear(ctx context.Context) error
	SaveUser(ctx context.Context, u *models.User) error
}

// AuthController owns the authentication state machine
// INITIALIZING -> UNAUTHENTICATED <-> AUTHENTICATED.
//
// Every login, registration and logout starts a new generation. A login or
// registration whose generation is no longer current when its response
// arrives is discarded, so transitions are applied in completion order and a
// late response can never revert a later one.
//
// The cached user record has a generation of its own: every
// UpdateCurrentUser and RefreshCurrentUser advances it, and a refetch that
// completes after a newer one of either kind is discarded.
//
// Observers are called synchronously, in transition order, after the new
// state is committed. They must not call mutating controller methods from
// the callback; Snapshot is safe.
type AuthController struct {
	client client.Client
	store  SessionStore
	log    logging.Logger

	// pubMu serializes commit+publish so observers see transitions in order.
	pubMu sync.Mutex

	mu      sync.Mutex
	snap    models.Snapshot
	gen     uint64
	userGen uint64
	subs    map[int]func(models.Snapshot)
	nextSub int
}

func NewAuthController(c client.Client, store SessionStore, log logging.Logger) *AuthController {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthController{
		client: c,
		store:  store,
		log:    log,
		snap:   models.Snapshot{State: models.StateInitializing},
		subs:   make(map[int]func(models.Snapshot)),
	}
}

// Snapshot returns the current state. The user record is a copy.
func (a *AuthController) Snapshot() models.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneSnapshot(a.snap)
}

// Subscribe registers fn for every future transition and returns a function
// that removes it. Calling the returned function more than once is harmless.
func (a *AuthController) Subscribe(fn func(models.Snapshot)) func() {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

// Watch delivers the current snapshot and then every transition on the
// returned channel until ctx is done, after which the channel is closed. A
// slow reader only misses intermediate snapshots; the latest one is always
// delivered.
func (a *AuthController) Watch(ctx context.Context) <-chan models.Snapshot {
	ch := make(chan models.Snapshot, 1)

	a.pubMu.Lock()
	ch <- a.Snapshot()
	unsubscribe := a.Subscribe(func(s models.Snapshot) {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	})
	a.pubMu.Unlock()

	go func() {
		<-ctx.Done()
		unsubscribe()
		// publishes run under pubMu; once it is held no callback is running
		a.pubMu.Lock()
		close(ch)
		a.pubMu.Unlock()
	}()
	return ch
}

// Init reads the stored session and leaves INITIALIZING: AUTHENTICATED when
// an access token is stored, UNAUTHENTICATED otherwise. A store read failure
// resolves to UNAUTHENTICATED and is returned.
func (a *AuthController) Init(ctx context.Context) error {
	a.pubMu.Lock()
	defer a.pubMu.Unlock()

	a.bump()
	sess, loadErr := a.store.Load(ctx)
	if loadErr != nil {
		a.log.Error(ctx, "cannot read stored session", logging.ErrorAttrs(loadErr)...)
		sess = models.Session{}
	}

	switch {
	case sess.HasAccessToken():
		a.commit(models.StateAuthenticated, sess.User)
		if sess.User == nil {
			a.log.Warn(ctx, "stored session has no user record")
		}
		if exp, ok := sess.AccessExpiresAt(); ok {
			a.log.Debug(ctx, "session restored", "access_expires_at", exp)
		}
	case !sess.IsEmpty():
		// a refresh token or user record without an access token is not a session
		a.log.Warn(ctx, "discarding incomplete stored session")
		if err := a.store.Clear(ctx); err != nil {
			a.log.Error(ctx, "cannot clear stored session", logging.ErrorAttrs(err)...)
		}
		a.commit(models.StateUnauthenticated, nil)
	default:
		a.commit(models.StateUnauthenticated, nil)
	}

	if loadErr != nil {
		return fmt.Errorf("init session: %w", loadErr)
	}
	return nil
}

// Login authenticates cred and establishes a session. Backend errors are
// returned unchanged in kind (client.ErrUnauthorized, client.ErrUnavailable,
// ...) and leave the state as it was.
func (a *AuthController) Login(ctx context.Context, cred models.Credential) (*models.User, error) {
	g := a.begin()
	res, err := a.client.Login(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return a.establish(ctx, g, "login", res)
}

// Register creates an account and signs in with the issued session.
func (a *AuthController) Register(ctx context.Context, profile models.RegisterProfile) (*models.User, error) {
	g := a.begin()
	res, err := a.client.Register(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return a.establish(ctx, g, "register", res)
}

func (a *AuthController) establish(ctx context.Context, g uint64, op string, res *models.AuthResult) (*models.User, error) {
	if res == nil || res.User == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrIncompleteResponse)
	}

	a.pubMu.Lock()
	defer a.pubMu.Unlock()

	if !a.isCurrent(g) {
		// the tokens are dropped without revocation
		a.log.Warn(ctx, "discarding stale session result", "operation", op, "email", res.User.Email)
		return nil, ErrSuperseded
	}

	sess := models.Session{AccessToken: res.Tokens.Access, RefreshToken: res.Tokens.Refresh, User: res.User}
	if err := a.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.commit(models.StateAuthenticated, res.User)
	a.log.Info(ctx, "signed in", "operation", op, "email", res.User.Email, "role", res.User.Role)
	return res.User.Clone(), nil
}

// Logout ends the session. Local state is cleared first and unconditionally;
// then the refresh token is revoked on the backend, best effort. A revoke
// failure is logged and not returned. The only error is a failure to clear
// the local store, and even then the controller is UNAUTHENTICATED.
func (a *AuthController) Logout(ctx context.Context) error {
	a.pubMu.Lock()
	a.bump()

	sess, err := a.store.Load(ctx)
	if err != nil {
		a.log.Warn(ctx, "cannot read session before logout", logging.ErrorAttrs(err)...)
	}
	clearErr := a.store.Clear(ctx)
	if clearErr != nil {
		a.log.Error(ctx, "cannot clear stored session", logging.ErrorAttrs(clearErr)...)
	}
	a.commit(models.StateUnauthenticated, nil)
	a.pubMu.Unlock()

	if sess.RefreshToken != "" {
		tokens := models.TokenPair{Access: sess.AccessToken, Refresh: sess.RefreshToken}
		if err := a.client.Logout(ctx, tokens); err != nil {
			a.log.Warn(ctx, "refresh token revocation failed", logging.ErrorAttrs(err)...)
		}
	}

	if clearErr != nil {
		return fmt.Errorf("logout: %w", clearErr)
	}
	return nil
}

// UpdateCurrentUser merges patch into the cached user record and persists
// it, so observers see a new role or picture without a refetch.
func (a *AuthController) UpdateCurrentUser(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	a.pubMu.Lock()
	defer a.pubMu.Unlock()

	a.mu.Lock()
	snap := a.snap
	if snap.IsAuthenticated() {
		a.userGen++
	}
	a.mu.Unlock()
	if !snap.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	base := snap.User
	if base == nil {
		base = &models.User{}
	}
	updated := patch.Apply(base)

	if err := a.store.SaveUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("update current user: %w", err)
	}
	a.commit(models.StateAuthenticated, updated)
	return updated.Clone(), nil
}

// RefreshCurrentUser refetches the user record and replaces the cache. A 401
// means the stored session is dead: it is dropped and the controller becomes
// UNAUTHENTICATED. A result that arrives after a login or logout, or after
// a newer UpdateCurrentUser or RefreshCurrentUser, is discarded with
// ErrSuperseded.
func (a *AuthController) RefreshCurrentUser(ctx context.Context) (*models.User, error) {
	a.mu.Lock()
	g := a.gen
	a.userGen++
	ug := a.userGen
	authenticated := a.snap.IsAuthenticated()
	a.mu.Unlock()
	if !authenticated {
		return nil, ErrNotAuthenticated
	}

	u, err := a.client.CurrentUser(ctx)

	a.pubMu.Lock()
	defer a.pubMu.Unlock()

	if !a.isCurrent(g) {
		return nil, ErrSuperseded
	}

	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.bump()
			if clearErr := a.store.Clear(ctx); clearErr != nil {
				a.log.Error(ctx, "cannot clear stored session", logging.ErrorAttrs(clearErr)...)
			}
			a.commit(models.StateUnauthenticated, nil)
			a.log.Info(ctx, "session expired, signed out")
		}
		return nil, fmt.Errorf("refresh current user: %w", err)
	}

	a.mu.Lock()
	stale := a.userGen != ug
	a.mu.Unlock()
	if stale {
		a.log.Debug(ctx, "discarding stale user record")
		return nil, ErrSuperseded
	}

	if err := a.store.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("refresh current user: %w", err)
	}
	a.commit(models.StateAuthenticated, u)
	return u.Clone(), nil
}

// begin starts a new generation and returns it.
func (a *AuthController) begin() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	return a.gen
}

// bump is begin for callers that already hold pubMu and ignore the value.
func (a *AuthController) bump() { a.begin() }

func (a *AuthController) isCurrent(g uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen == g
}

// commit installs the new state and notifies observers. The caller must hold
// pubMu. Nothing is published when neither the state nor the user changed.
func (a *AuthController) commit(state models.AuthState, user *models.User) {
	a.mu.Lock()
	if a.snap.State == state && a.snap.User == nil && user == nil {
		a.mu.Unlock()
		return
	}
	a.snap = models.Snapshot{State: state, User: user.Clone(), Version: a.snap.Version + 1}
	snap := a.snap
	subs := make([]func(models.Snapshot), 0, len(a.subs))
	for id := 0; id < a.nextSub; id++ {
		if fn, ok := a.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(cloneSnapshot(snap))
	}
}

func cloneSnapshot(s models.Snapshot) models.Snapshot {
	s.User = s.User.Clone()
	return s
}
