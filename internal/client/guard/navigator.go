package guard

import (
	"sync"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
)

// maxRedirects bounds redirect chains; the route table never needs more
// than two hops.
const maxRedirects = 8

// StateSource is what the navigator observes. services.AuthController
// implements it.
type StateSource interface {
	Snapshot() models.Snapshot
	Subscribe(fn func(models.Snapshot)) func()
}

// Navigator holds the current location and re-evaluates it on every
// navigation and every authentication state change. After a redirect to the
// login page it remembers where the user was going and returns there once
// the session is established.
type Navigator struct {
	guard    *Guard
	onChange func(path string, d Decision)

	mu      sync.Mutex
	snap    models.Snapshot
	path    string
	from    string
	current Decision

	unsubscribe func()
}

// NewNavigator starts at /. onChange, if not nil, is called whenever the
// resolved location or its decision changes; it runs on the goroutine that
// caused the change.
func NewNavigator(g *Guard, src StateSource, onChange func(path string, d Decision)) *Navigator {
	n := &Navigator{guard: g, onChange: onChange, path: PathHome}

	// subscribe first so no transition is missed; stateChanged waits for mu
	n.mu.Lock()
	n.unsubscribe = src.Subscribe(n.stateChanged)
	n.snap = src.Snapshot()
	n.path, n.current = n.resolve(PathHome)
	n.mu.Unlock()
	return n
}

// Close stops observing the state source.
func (n *Navigator) Close() {
	n.unsubscribe()
}

// Navigate requests path and returns where the user ends up and what is
// shown there.
func (n *Navigator) Navigate(path string) (string, Decision) {
	n.mu.Lock()
	n.from = ""
	n.path, n.current = n.resolve(Normalize(path))
	p, d := n.path, n.current
	n.mu.Unlock()

	n.notify(p, d)
	return p, d
}

// Current returns the resolved location.
func (n *Navigator) Current() (string, Decision) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path, n.current
}

// ReturnTo is the path the user will be sent to after signing in, if any.
func (n *Navigator) ReturnTo() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.from
}

func (n *Navigator) stateChanged(s models.Snapshot) {
	n.mu.Lock()
	if s.Version < n.snap.Version {
		n.mu.Unlock()
		return
	}
	n.snap = s
	target := n.path
	if s.IsAuthenticated() && (n.path == PathLogin || n.path == PathSignup) {
		target = PathHome
		if n.from != "" {
			target = n.from
			n.from = ""
		}
	}
	oldPath, oldDecision := n.path, n.current
	n.path, n.current = n.resolve(target)
	p, d := n.path, n.current
	n.mu.Unlock()

	if p != oldPath || d != oldDecision {
		n.notify(p, d)
	}
}

// resolve follows redirects from path. Caller holds mu.
func (n *Navigator) resolve(path string) (string, Decision) {
	d := n.guard.Evaluate(n.snap, path)
	for i := 0; i < maxRedirects && d.Kind == Redirect; i++ {
		if d.From != "" {
			n.from = d.From
		}
		path = d.Target
		d = n.guard.Evaluate(n.snap, path)
	}
	return path, d
}

func (n *Navigator) notify(path string, d Decision) {
	if n.onChange != nil {
		n.onChange(path, d)
	}
}
