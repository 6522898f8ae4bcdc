package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/usermanager/internal/client/client"
	"github.com/dmitrijs2005/usermanager/internal/client/config"
	"github.com/dmitrijs2005/usermanager/internal/client/guard"
	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/client/services"
	"github.com/dmitrijs2005/usermanager/internal/client/session"
	"github.com/dmitrijs2005/usermanager/internal/client/validation"
	"github.com/dmitrijs2005/usermanager/internal/logging"
)

// Paths the commands are routed through before they run.
const (
	pathProfile    = "/profile"
	pathDashboard  = "/admin/dashboard"
	pathStatistics = "/admin/statistics"
)

type authFlow interface {
	guard.StateSource
	Watch(ctx context.Context) <-chan models.Snapshot
	Init(ctx context.Context) error
	Login(ctx context.Context, cred models.Credential) (*models.User, error)
	Register(ctx context.Context, profile models.RegisterProfile) (*models.User, error)
	Logout(ctx context.Context) error
	RefreshCurrentUser(ctx context.Context) (*models.User, error)
}

type profileFlow interface {
	UpdateProfile(ctx context.Context, form validation.ProfileForm) (*models.User, error)
	ChangePassword(ctx context.Context, form validation.PasswordChangeForm) error
	UploadPicture(ctx context.Context, path string) (*models.User, error)
	DeletePicture(ctx context.Context) (*models.User, error)
}

type adminFlow interface {
	ListUsers(ctx context.Context, page int) (*models.UserPage, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	Activate(ctx context.Context, id int64) (*models.User, error)
	Deactivate(ctx context.Context, id int64) (*models.User, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
	Dashboard(ctx context.Context, page int) (*services.Dashboard, error)
}

// RedirectError is returned when the route guard does not let a command's
// page render.
type RedirectError struct {
	Requested string
	Landed    string
	Decision  guard.Decision
}

func (e *RedirectError) Error() string {
	if e.Decision.Kind == guard.Loading {
		return fmt.Sprintf("%s: session is still loading", e.Requested)
	}
	return fmt.Sprintf("%s: redirected to %s", e.Requested, e.Landed)
}

// App is the wired client: the session controller, the profile and admin
// services and the navigator that guards every page-backed command.
type App struct {
	log     logging.Logger
	db      *sql.DB
	auth    authFlow
	profile profileFlow
	admin   adminFlow
	nav     *guard.Navigator
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the session database, builds the REST client and services and
// restores the persisted session.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	log := logging.New(cfg.LogFormat, cfg.LogLevel, errOut)

	db, err := client.InitDatabase(ctx, cfg.SessionDB)
	if err != nil {
		log.Error(ctx, "error initializing database", logging.ErrorAttrs(err)...)
		return nil, err
	}

	store := session.NewStore(db, log)
	api, err := client.NewHTTPClient(cfg.ServerURL, store,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	auth := services.NewAuthController(api, store, log)
	a := newApp(log, auth, services.NewProfileService(api, auth, log), services.NewAdminService(api, log), in, out)
	a.db = db

	if err := auth.Init(ctx); err != nil {
		// the controller already fell back to signed-out
		log.Warn(ctx, "could not restore session", logging.ErrorAttrs(err)...)
	}
	return a, nil
}

func newApp(log logging.Logger, auth authFlow, profile profileFlow, admin adminFlow, in io.Reader, out io.Writer) *App {
	a := &App{
		log:     log,
		auth:    auth,
		profile: profile,
		admin:   admin,
		reader:  bufio.NewReader(in),
		out:     out,
	}
	a.nav = guard.NewNavigator(guard.Default(), auth, func(path string, d guard.Decision) {
		log.Debug(context.Background(), "location changed", "path", path, "decision", d.String())
	})
	return a
}

// Close releases the navigator subscription and the session database.
func (a *App) Close() error {
	a.nav.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.auth.Snapshot().IsAuthenticated()
}

func (a *App) isAdmin() bool {
	return a.auth.Snapshot().User.IsAdmin()
}

// watchStatus follows the session until ctx is done and returns the prompt
// status of the latest snapshot, so the prompt also reflects transitions no
// command caused, such as an expired session being dropped.
func (a *App) watchStatus(ctx context.Context) func() string {
	snaps := a.auth.Watch(ctx)
	cur := <-snaps
	return func() string {
		for {
			select {
			case s, ok := <-snaps:
				if !ok {
					return statusOf(cur)
				}
				cur = s
				continue
			default:
			}
			return statusOf(cur)
		}
	}
}

func statusOf(snap models.Snapshot) string {
	if !snap.IsAuthenticated() {
		return strings.ToLower(string(snap.State))
	}
	if snap.User == nil {
		return "signed in"
	}
	return fmt.Sprintf("%s %s", snap.User.Email, snap.User.Role)
}

// enter navigates to path and fails unless the page renders there. Staying
// on the current page keeps the remembered return path.
func (a *App) enter(path string) error {
	want := guard.Normalize(path)
	if cur, d := a.nav.Current(); cur == want && d.Kind == guard.Render {
		return nil
	}
	landed, d := a.nav.Navigate(want)
	if d.Kind == guard.Render && landed == want {
		return nil
	}
	return &RedirectError{Requested: want, Landed: landed, Decision: d}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// describe renders err for the terminal. Field errors are listed one per
// line, known transport failures get a short sentence.
func describe(err error) string {
	var (
		verr *validation.Error
		ferr *client.FieldValidationError
		rerr *RedirectError
	)
	switch {
	case errors.As(err, &verr):
		return fieldLines("Please fix the following:", verr.Fields)
	case errors.As(err, &ferr):
		if msg := ferr.Message(); msg != "" && len(ferr.Fields) == 1 {
			return msg
		}
		return fieldLines("The server rejected the request:", ferr.Fields)
	case errors.As(err, &rerr):
		if rerr.Landed == guard.PathLogin {
			return fmt.Sprintf("You must log in to access %s.", rerr.Requested)
		}
		if rerr.Landed == guard.PathNotFound {
			return fmt.Sprintf("Page %s not found.", rerr.Requested)
		}
		if rerr.Decision.Kind == guard.Loading {
			return "Session is still loading, try again."
		}
		return fmt.Sprintf("You are not allowed to access %s.", rerr.Requested)
	case errors.Is(err, services.ErrSuperseded):
		return "Cancelled by a newer session operation."
	case errors.Is(err, services.ErrNotAuthenticated):
		return "You are not logged in."
	case errors.Is(err, client.ErrUnauthorized):
		return "Your session has expired, please log in again."
	case errors.Is(err, client.ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, client.ErrNotFound):
		return "Not found."
	case errors.Is(err, client.ErrUnavailable):
		return "Server is unavailable, check your connection."
	}
	return err.Error()
}

func fieldLines(header string, fields validation.FieldErrors) string {
	var b strings.Builder
	b.WriteString(header)
	for _, k := range fields.Fields() {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return b.String()
}
