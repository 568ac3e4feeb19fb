package session

import (
	"github.com/jrsteele09/go-blog-admin/admins"
	"github.com/jrsteele09/go-blog-admin/store"
)

// LogoutReason records why the last session ended.
type LogoutReason int

const (
	LogoutNone LogoutReason = iota
	LogoutUserRequested
	LogoutSessionExpired
	LogoutNoSession
)

func (r LogoutReason) String() string {
	switch r {
	case LogoutUserRequested:
		return "user_requested"
	case LogoutSessionExpired:
		return "session_expired"
	case LogoutNoSession:
		return "no_session"
	default:
		return "none"
	}
}

// Forced reports whether the session was ended by the server rather than the user.
func (r LogoutReason) Forced() bool {
	return r == LogoutSessionExpired || r == LogoutNoSession
}

// State is a snapshot of the session handed to observers. CurrentUser must be treated as read-only.
type State struct {
	// Session changes on every login, restore and logout, and stays put across refreshes.
	Session         uint64
	CurrentUser     *admins.Profile
	IsAuthenticated bool
	IsSuperAdmin    bool
	IsLoading       bool
	Scope           store.Scope
	LogoutReason    LogoutReason
}

// Credentials are the login form input. They are never stored.
type Credentials struct {
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=8"`
	RememberMe bool
}
