package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNewAuthenticationError_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		kind    apperrors.AuthKind
		target  error
		message string
	}{
		{"not found means invalid credentials", http.StatusNotFound, apperrors.AuthInvalidCredentials, apperrors.ErrInvalidCredentials, "Invalid email or password."},
		{"forbidden means inactive account", http.StatusForbidden, apperrors.AuthAccountInactive, apperrors.ErrAccountInactive, "Account is inactive."},
		{"anything else is a plain rejection", http.StatusBadRequest, apperrors.AuthRejected, apperrors.ErrLoginRejected, "Login failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperrors.NewAuthenticationError(tt.status, "server says no")
			require.Equal(t, tt.kind, err.Kind)
			require.ErrorIs(t, err, tt.target)
			require.Equal(t, tt.message, err.UserMessage())
		})
	}
}

func TestSessionExpiredError_UnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("refresh returned 401")
	err := &apperrors.SessionExpiredError{Cause: cause}

	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "refresh returned 401")
}

func TestAPIError_Unwrap(t *testing.T) {
	require.ErrorIs(t, &apperrors.APIError{Status: http.StatusUnauthorized}, apperrors.ErrNotAuthenticated)
	require.ErrorIs(t, &apperrors.APIError{Status: http.StatusNotFound}, apperrors.ErrNotFound)
	require.ErrorIs(t, &apperrors.APIError{Status: http.StatusBadGateway}, apperrors.ErrInternal)
	require.NotErrorIs(t, &apperrors.APIError{Status: http.StatusConflict}, apperrors.ErrInternal)
	require.Equal(t, "backend returned status 409", (&apperrors.APIError{Status: http.StatusConflict}).Error())
}

func TestValidationError(t *testing.T) {
	err := &apperrors.ValidationError{Field: "email", Message: "Please enter a valid email"}
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Equal(t, "email: Please enter a valid email", err.Error())

	var target *apperrors.ValidationError
	require.True(t, apperrors.As(apperrors.Wrapf(err, "[login]"), &target))
	require.Equal(t, "email", target.Field)
}

func TestWrapf_NilPassesThrough(t *testing.T) {
	require.NoError(t, apperrors.Wrapf(nil, "context %d", 1))
}
