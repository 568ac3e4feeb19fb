package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the blog admin client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrLoginRejected      = errors.New("login rejected")
	ErrMissingAccessToken = errors.New("login failed, no accessToken found")

	// Session errors
	ErrSessionExpired   = errors.New("session expired")
	ErrNoSession        = errors.New("no session user provided")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")

	// Client-side errors
	ErrValidation = errors.New("validation failed")
	ErrNetwork    = errors.New("network error")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// ValidationError is raised before any request is sent, e.g. for a malformed email.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AuthKind distinguishes why the login endpoint rejected the credentials.
type AuthKind string

const (
	AuthInvalidCredentials AuthKind = "invalid_credentials"
	AuthAccountInactive    AuthKind = "account_inactive"
	AuthRejected           AuthKind = "rejected"
)

// AuthenticationError is returned by Login when the server rejects the credentials.
// The 404 => invalid credentials and 403 => inactive mapping is the backend's contract.
type AuthenticationError struct {
	Kind    AuthKind
	Status  int
	Message string
}

// NewAuthenticationError maps a login response status to an AuthenticationError.
func NewAuthenticationError(status int, message string) *AuthenticationError {
	kind := AuthRejected
	switch status {
	case http.StatusNotFound:
		kind = AuthInvalidCredentials
	case http.StatusForbidden:
		kind = AuthAccountInactive
	}
	return &AuthenticationError{Kind: kind, Status: status, Message: message}
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("authentication failed (%d)", e.Status)
}

func (e *AuthenticationError) Unwrap() error {
	switch e.Kind {
	case AuthInvalidCredentials:
		return ErrInvalidCredentials
	case AuthAccountInactive:
		return ErrAccountInactive
	default:
		return ErrLoginRejected
	}
}

// UserMessage is the text a login form shows next to the offending field.
func (e *AuthenticationError) UserMessage() string {
	switch e.Kind {
	case AuthInvalidCredentials:
		return "Invalid email or password."
	case AuthAccountInactive:
		return "Account is inactive."
	default:
		return "Login failed."
	}
}

// SessionExpiredError records a failed silent refresh. The session is ended when it occurs.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	if e.Cause == nil {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSessionExpired.Error(), e.Cause)
}

func (e *SessionExpiredError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSessionExpired}
	}
	return []error{ErrSessionExpired, e.Cause}
}

// NetworkError is a transport failure where no response was received.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot connect to %s (%s): %v", e.URL, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// APIError is a non-2xx response from the admin API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	if e.Status >= 500 {
		return ErrInternal
	}
	return nil
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
