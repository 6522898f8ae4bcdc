// Package guard decides which screen a request for a path may show, given the
// authentication state. Decide is the pure rule; Guard adds the route table
// and Navigator tracks the current location across state changes.
package guard

import (
	"github.com/dmitrijs2005/usermanager/internal/client/models"
)

const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathSignup   = "/signup"
	PathNotFound = "/404"
)

type Kind int

const (
	// Loading means the session is still being read; show a spinner, do not
	// redirect.
	Loading Kind = iota
	Render
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "LOADING"
	case Render:
		return "RENDER"
	case Redirect:
		return "REDIRECT"
	default:
		return "UNKNOWN"
	}
}

// Decision is the outcome for one path. Target is set for redirects; From is
// the originally requested path when the redirect goes to the login page.
type Decision struct {
	Kind   Kind
	Target string
	From   string
}

func (d Decision) String() string {
	if d.Kind != Redirect {
		return d.Kind.String()
	}
	if d.From != "" {
		return "REDIRECT(" + d.Target + ", from " + d.From + ")"
	}
	return "REDIRECT(" + d.Target + ")"
}

// Decide applies the access rule for a protected path:
//
//  1. INITIALIZING renders a loading indicator.
//  2. UNAUTHENTICATED redirects to /login, remembering path.
//  3. A user without one of requiredRoles is sent to /.
//  4. Everything else renders.
//
// It has no side effects.
func Decide(state models.AuthState, user *models.User, requiredRoles []models.Role, path string) Decision {
	switch state {
	case models.StateInitializing:
		return Decision{Kind: Loading}
	case models.StateAuthenticated:
	default:
		return Decision{Kind: Redirect, Target: PathLogin, From: path}
	}

	if len(requiredRoles) > 0 && !user.HasAnyRole(requiredRoles...) {
		return Decision{Kind: Redirect, Target: PathHome}
	}
	return Decision{Kind: Render}
}
