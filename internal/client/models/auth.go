package models

// AuthState is the state of the authentication session controller.
type AuthState string

const (
	StateInitializing    AuthState = "INITIALIZING"
	StateUnauthenticated AuthState = "UNAUTHENTICATED"
	StateAuthenticated   AuthState = "AUTHENTICATED"
)

// Snapshot is an immutable view of the controller state handed to observers.
// Version increases with every committed transition.
type Snapshot struct {
	State   AuthState
	User    *User
	Version uint64
}

// IsAuthenticated reports whether the snapshot is in the AUTHENTICATED state.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}
