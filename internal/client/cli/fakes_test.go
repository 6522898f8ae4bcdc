package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/client/services"
	"github.com/dmitrijs2005/usermanager/internal/client/validation"
	"github.com/dmitrijs2005/usermanager/internal/logging"
)

// stubInputs replaces the prompt helpers with queues of canned answers.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origOT, origGP := getSimpleText, getOptionalText, getPassword
	t.Cleanup(func() {
		getSimpleText, getOptionalText, getPassword = origST, origOT, origGP
	})

	next := func(q *[]string) string {
		if len(*q) == 0 {
			t.Fatalf("unexpected prompt")
		}
		v := (*q)[0]
		*q = (*q)[1:]
		return v
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		return next(&texts), nil
	}
	getOptionalText = func(_ *bufio.Reader, _, current string, _ io.Writer) (string, error) {
		if v := next(&texts); v != "" {
			return v, nil
		}
		return current, nil
	}
	getPassword = func(_ string, _ io.Writer) ([]byte, error) {
		return []byte(next(&passwords)), nil
	}
}

type fakeAuth struct {
	mu   sync.Mutex
	snap models.Snapshot
	subs map[int]func(models.Snapshot)
	next int

	loginFn    func(models.Credential) (*models.User, error)
	registerFn func(models.RegisterProfile) (*models.User, error)
	refreshErr error
	logoutErr  error

	logins    []models.Credential
	registers []models.RegisterProfile
	logouts   int
}

func newFakeAuth(state models.AuthState, u *models.User) *fakeAuth {
	return &fakeAuth{
		snap: models.Snapshot{State: state, User: u, Version: 1},
		subs: map[int]func(models.Snapshot){},
	}
}

func (f *fakeAuth) Snapshot() models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeAuth) Subscribe(fn func(models.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Watch mirrors the controller: the current snapshot first, then every
// transition, closed once ctx is done.
func (f *fakeAuth) Watch(ctx context.Context) <-chan models.Snapshot {
	ch := make(chan models.Snapshot, 8)
	ch <- f.Snapshot()

	var mu sync.Mutex
	closed := false
	unsubscribe := f.Subscribe(func(s models.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- s:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

func (f *fakeAuth) set(state models.AuthState, u *models.User) {
	f.mu.Lock()
	f.snap = models.Snapshot{State: state, User: u, Version: f.snap.Version + 1}
	s := f.snap
	subs := make([]func(models.Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeAuth) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeAuth) Init(context.Context) error { return nil }

func (f *fakeAuth) Login(_ context.Context, cred models.Credential) (*models.User, error) {
	f.logins = append(f.logins, cred)
	u, err := f.loginFn(cred)
	if err != nil {
		return nil, err
	}
	f.set(models.StateAuthenticated, u)
	return u, nil
}

func (f *fakeAuth) Register(_ context.Context, p models.RegisterProfile) (*models.User, error) {
	f.registers = append(f.registers, p)
	u, err := f.registerFn(p)
	if err != nil {
		return nil, err
	}
	f.set(models.StateAuthenticated, u)
	return u, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	f.set(models.StateUnauthenticated, nil)
	return f.logoutErr
}

func (f *fakeAuth) RefreshCurrentUser(context.Context) (*models.User, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.Snapshot().User, nil
}

type fakeProfile struct {
	updates []validation.ProfileForm
	changes []validation.PasswordChangeForm
	uploads []string
	deletes int
	err     error
}

func (f *fakeProfile) UpdateProfile(_ context.Context, form validation.ProfileForm) (*models.User, error) {
	f.updates = append(f.updates, form)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 1, FullName: form.FullName, Email: form.Email}, nil
}

func (f *fakeProfile) ChangePassword(_ context.Context, form validation.PasswordChangeForm) error {
	f.changes = append(f.changes, form)
	return f.err
}

func (f *fakeProfile) UploadPicture(_ context.Context, path string) (*models.User, error) {
	f.uploads = append(f.uploads, path)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 1, ProfilePictureURL: "/media/p.png"}, nil
}

func (f *fakeProfile) DeletePicture(context.Context) (*models.User, error) {
	f.deletes++
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 1}, nil
}

type fakeAdmin struct {
	page  *models.UserPage
	stats *models.Statistics
	err   error
	calls []string
}

func (f *fakeAdmin) ListUsers(_ context.Context, page int) (*models.UserPage, error) {
	f.calls = append(f.calls, "list")
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.Page = page
	return &p, nil
}

func (f *fakeAdmin) GetUser(_ context.Context, id int64) (*models.User, error) {
	f.calls = append(f.calls, "get")
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, Email: "bob@example.com", Role: models.RoleUser, Status: models.StatusActive}, nil
}

func (f *fakeAdmin) Activate(_ context.Context, id int64) (*models.User, error) {
	f.calls = append(f.calls, "activate")
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, Email: "bob@example.com", Status: models.StatusActive}, nil
}

func (f *fakeAdmin) Deactivate(_ context.Context, id int64) (*models.User, error) {
	f.calls = append(f.calls, "deactivate")
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, Email: "bob@example.com", Status: models.StatusInactive}, nil
}

func (f *fakeAdmin) Statistics(context.Context) (*models.Statistics, error) {
	f.calls = append(f.calls, "stats")
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeAdmin) Dashboard(ctx context.Context, page int) (*services.Dashboard, error) {
	f.calls = append(f.calls, "dashboard")
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.Page = page
	return &services.Dashboard{Users: &p, Statistics: f.stats}, nil
}

type testApp struct {
	*App
	auth    *fakeAuth
	profile *fakeProfile
	admin   *fakeAdmin
	out     *bytes.Buffer
}

func ann() *models.User {
	return &models.User{ID: 1, Email: "ann@example.com", FullName: "Ann Smith", Role: models.RoleUser, Status: models.StatusActive}
}

func adminUser() *models.User {
	u := ann()
	u.Role = models.RoleAdmin
	return u
}

func newTestApp(t *testing.T, state models.AuthState, u *models.User) *testApp {
	t.Helper()
	ta := &testApp{
		auth:    newFakeAuth(state, u),
		profile: &fakeProfile{},
		admin: &fakeAdmin{
			page: &models.UserPage{
				Count:   11,
				Results: []*models.User{ann(), {ID: 2, Email: "bob@example.com", FullName: "Bob", Role: models.RoleUser, Status: models.StatusInactive}},
			},
			stats: &models.Statistics{TotalUsers: 4, ActiveUsers: 3, InactiveUsers: 1, AdminUsers: 1, RegularUsers: 3},
		},
		out: &bytes.Buffer{},
	}
	ta.App = newApp(logging.Nop(), ta.auth, ta.profile, ta.admin, strings.NewReader(""), ta.out)
	t.Cleanup(func() { _ = ta.App.Close() })
	return ta
}
