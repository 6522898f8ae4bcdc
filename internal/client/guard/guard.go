package guard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/gobwas/glob"
)

// Route is one entry of the route table. Pattern is a glob where '*' stays
// within a path segment and '{a,b}' lists alternatives.
type Route struct {
	Name    string
	Pattern string
	Public  bool
	Roles   []models.Role
}

// DefaultRoutes is the application's route table.
var DefaultRoutes = []Route{
	{Name: "login", Pattern: PathLogin, Public: true},
	{Name: "signup", Pattern: PathSignup, Public: true},
	{Name: "not-found", Pattern: PathNotFound, Public: true},
	{Name: "home", Pattern: PathHome},
	{Name: "profile", Pattern: "/profile"},
	{Name: "admin", Pattern: "/admin/{dashboard,statistics}", Roles: []models.Role{models.RoleAdmin}},
}

type compiledRoute struct {
	Route
	glob glob.Glob
}

// Guard evaluates paths against a route table. First match wins; a path that
// matches nothing is redirected to /404.
type Guard struct {
	routes []compiledRoute
}

// New compiles routes. All patterns are compiled before any is used.
func New(routes []Route) (*Guard, error) {
	compiled := make([]compiledRoute, len(routes))
	for i, r := range routes {
		if r.Pattern == "" {
			return nil, fmt.Errorf("route %d: empty pattern", i)
		}
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("route %d (%q): %w", i, r.Pattern, err)
		}
		compiled[i] = compiledRoute{Route: r, glob: g}
	}
	return &Guard{routes: compiled}, nil
}

// Default returns a Guard over DefaultRoutes.
func Default() *Guard {
	g, err := New(DefaultRoutes)
	if err != nil {
		panic(err)
	}
	return g
}

// Match finds the route for path.
func (g *Guard) Match(path string) (Route, bool) {
	p := Normalize(path)
	for _, r := range g.routes {
		if r.glob.Match(p) {
			return r.Route, true
		}
	}
	return Route{}, false
}

// Evaluate decides what path shows in the given state.
func (g *Guard) Evaluate(snap models.Snapshot, path string) Decision {
	p := Normalize(path)
	r, ok := g.Match(p)
	if !ok {
		return Decision{Kind: Redirect, Target: PathNotFound}
	}
	if r.Public {
		return Decision{Kind: Render}
	}
	return Decide(snap.State, snap.User, r.Roles, p)
}

// Normalize strips query and fragment, ensures a leading slash and drops a
// trailing one.
func Normalize(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
