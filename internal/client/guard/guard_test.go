package guard

import (
	"testing"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin   = &models.User{ID: 1, Role: models.RoleAdmin}
	regular = &models.User{ID: 2, Role: models.RoleUser}
	adminR  = []models.Role{models.RoleAdmin}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		state models.AuthState
		user  *models.User
		roles []models.Role
		want  Decision
	}{
		{"initializing shows loading", models.StateInitializing, nil, adminR, Decision{Kind: Loading}},
		{"initializing ignores user", models.StateInitializing, admin, nil, Decision{Kind: Loading}},
		{"unauthenticated no roles", models.StateUnauthenticated, nil, nil, Decision{Kind: Redirect, Target: PathLogin, From: "/x"}},
		{"unauthenticated with roles", models.StateUnauthenticated, nil, adminR, Decision{Kind: Redirect, Target: PathLogin, From: "/x"}},
		{"role mismatch goes home", models.StateAuthenticated, regular, adminR, Decision{Kind: Redirect, Target: PathHome}},
		{"unknown user with roles goes home", models.StateAuthenticated, nil, adminR, Decision{Kind: Redirect, Target: PathHome}},
		{"matching role renders", models.StateAuthenticated, admin, adminR, Decision{Kind: Render}},
		{"no roles renders", models.StateAuthenticated, regular, nil, Decision{Kind: Render}},
		{"any of roles", models.StateAuthenticated, regular, []models.Role{models.RoleAdmin, models.RoleUser}, Decision{Kind: Render}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.state, tt.user, tt.roles, "/x")
			assert.Equal(t, tt.want, got)
			// repeated calls agree
			assert.Equal(t, got, Decide(tt.state, tt.user, tt.roles, "/x"))
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "LOADING", Decision{Kind: Loading}.String())
	assert.Equal(t, "RENDER", Decision{Kind: Render}.String())
	assert.Equal(t, "REDIRECT(/)", Decision{Kind: Redirect, Target: "/"}.String())
	assert.Equal(t, "REDIRECT(/login, from /profile)", Decision{Kind: Redirect, Target: "/login", From: "/profile"}.String())
	assert.Equal(t, "UNKNOWN", Kind(42).String())
}

func TestGuard_Evaluate(t *testing.T) {
	g := Default()
	unauth := models.Snapshot{State: models.StateUnauthenticated}
	asUser := models.Snapshot{State: models.StateAuthenticated, User: regular}
	asAdmin := models.Snapshot{State: models.StateAuthenticated, User: admin}

	tests := []struct {
		snap models.Snapshot
		path string
		want Decision
	}{
		{unauth, "/login", Decision{Kind: Render}},
		{unauth, "/signup/", Decision{Kind: Render}},
		{unauth, "/", Decision{Kind: Redirect, Target: PathLogin, From: "/"}},
		{unauth, "/profile?tab=password", Decision{Kind: Redirect, Target: PathLogin, From: "/profile"}},
		{asUser, "/profile", Decision{Kind: Render}},
		{asUser, "/admin/dashboard", Decision{Kind: Redirect, Target: PathHome}},
		{asAdmin, "/admin/statistics", Decision{Kind: Render}},
		{asAdmin, "/admin/other", Decision{Kind: Redirect, Target: PathNotFound}},
		{asAdmin, "/admin/dashboard/extra", Decision{Kind: Redirect, Target: PathNotFound}},
		{asUser, "/nowhere", Decision{Kind: Redirect, Target: PathNotFound}},
		{unauth, "/404", Decision{Kind: Render}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Evaluate(tt.snap, tt.path), "%s %s", tt.snap.State, tt.path)
	}
}

func TestGuard_Match(t *testing.T) {
	g := Default()
	r, ok := g.Match("/admin/dashboard")
	require.True(t, ok)
	assert.Equal(t, "admin", r.Name)
	assert.Equal(t, adminR, r.Roles)

	_, ok = g.Match("/missing")
	assert.False(t, ok)
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New([]Route{{Pattern: "/a/[b"}})
	require.Error(t, err)

	_, err = New([]Route{{Pattern: ""}})
	require.ErrorContains(t, err, "empty pattern")
}

func TestNormalize(t *testing.T) {
	for in, want := range map[string]string{
		"":               "/",
		"/":              "/",
		"profile":        "/profile",
		"/profile/":      "/profile",
		"/profile?x=1":   "/profile",
		"/admin/stats#a": "/admin/stats",
		"//":             "/",
	} {
		assert.Equal(t, want, Normalize(in), in)
	}
}
