package store

import (
	"github.com/pkg/errors"
)

// Scope tags which backing store holds the current token.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeDurable
	ScopeEphemeral
)

func (s Scope) String() string {
	switch s {
	case ScopeDurable:
		return "durable"
	case ScopeEphemeral:
		return "ephemeral"
	default:
		return "none"
	}
}

const (
	AccessTokenKey    = "accessToken"
	RefreshCookiesKey = "refreshCookies"
)

var ErrNotFound = errors.New("key not found")

type Repo interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Stores pairs the remember-me store with the one that dies with the process.
type Stores struct {
	Durable   Repo
	Ephemeral Repo
}

func (s Stores) Validate() error {
	if s.Durable == nil {
		return errors.New("[store.Stores] durable store is required")
	}
	if s.Ephemeral == nil {
		return errors.New("[store.Stores] ephemeral store is required")
	}
	return nil
}

// For returns the repo backing scope, or nil for ScopeNone.
func (s Stores) For(scope Scope) Repo {
	switch scope {
	case ScopeDurable:
		return s.Durable
	case ScopeEphemeral:
		return s.Ephemeral
	default:
		return nil
	}
}

// Other returns the scope a login did not choose.
func (s Scope) Other() Scope {
	switch s {
	case ScopeDurable:
		return ScopeEphemeral
	case ScopeEphemeral:
		return ScopeDurable
	default:
		return ScopeNone
	}
}
