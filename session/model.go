package session

import "github.com/wfa-platform/wfaclient/capability"

// User is the authenticated user record as returned by the backend's
// login and profile endpoints. It is never reconstructed from token
// claims.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Session is a point-in-time copy of the store's state. Token and User
// are set together or not at all.
type Session struct {
	Token string
	User  *User
}

// Role returns the capability role for the session's user, or the
// guest role when logged out.
func (s Session) Role() capability.Role {
	if s.User == nil {
		return capability.RoleGuest
	}
	return capability.Role(s.User.Role)
}

// State is the session lifecycle state. There are exactly two: a store
// is logged in or it is not. Pending logins are the caller's concern.
type State uint8

const (
	// StateLoggedOut is the empty session state.
	StateLoggedOut State = iota
	// StateLoggedIn means a verified token and user pair is present.
	StateLoggedIn
)

func (s State) String() string {
	if s == StateLoggedIn {
		return "logged-in"
	}
	return "logged-out"
}
