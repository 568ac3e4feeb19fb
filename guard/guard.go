package guard

import (
	"fmt"

	"github.com/jrsteele09/go-blog-admin/session"
)

// Decision is what a route guard tells the caller to do with the current session.
type Decision int

const (
	Allow Decision = iota
	Wait
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Route is the access level a screen or command requires.
type Route int

const (
	RouteProtected Route = iota
	RoutePublic
	RouteSuperAdmin
)

// Protected admits any signed-in admin.
func Protected(s session.State) Decision {
	if !s.IsAuthenticated {
		return RedirectLogin
	}
	return Allow
}

// Public is for the login screen. Signed-in admins are sent home.
func Public(s session.State) Decision {
	if s.IsAuthenticated {
		return RedirectHome
	}
	return Allow
}

// SuperAdmin waits for the profile while loading, then admits only super-admins.
func SuperAdmin(s session.State) Decision {
	if s.IsLoading {
		return Wait
	}
	if !s.IsAuthenticated {
		return RedirectLogin
	}
	if !s.IsSuperAdmin {
		return RedirectHome
	}
	return Allow
}

func Decide(r Route, s session.State) Decision {
	switch r {
	case RoutePublic:
		return Public(s)
	case RouteSuperAdmin:
		return SuperAdmin(s)
	default:
		return Protected(s)
	}
}

// ErrRedirect is returned by Check when the route may not be entered.
type ErrRedirect struct {
	Route    Route
	Decision Decision
	Reason   session.LogoutReason
}

func (e *ErrRedirect) Error() string {
	switch e.Decision {
	case RedirectLogin:
		if e.Reason.Forced() {
			return "Session expired, please log in again."
		}
		return "You are not logged in. Run 'blogadmin login' first."
	case RedirectHome:
		if e.Route == RoutePublic {
			return "You are already logged in. Run 'blogadmin logout' first."
		}
		return "This action requires a super-admin account."
	case Wait:
		return "The session is still loading."
	default:
		return e.Decision.String()
	}
}

// Check returns nil when r may be entered with s.
func Check(r Route, s session.State) error {
	d := Decide(r, s)
	if d == Allow {
		return nil
	}
	return &ErrRedirect{Route: r, Decision: d, Reason: s.LogoutReason}
}
