package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

type retriedKey struct{}

// IsRetry reports whether ctx belongs to a request re-issued after a refresh.
func IsRetry(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey{}).(bool)
	return retried
}

func markRetried(req *http.Request) *http.Request {
	return req.Clone(context.WithValue(req.Context(), retriedKey{}, true))
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// ChainTransport wraps base with mw. The first middleware sees the request first.
func ChainTransport(base http.RoundTripper, mw ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	chained := base
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// RateLimitTransport waits on limiter before each request. A nil limiter is a no-op.
func RateLimitTransport(limiter *rate.Limiter) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}

// RequestIDTransport tags each outbound request with a fresh X-Request-ID unless one is set.
func RequestIDTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(req)
		}
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, uuid.NewString())
		return next.RoundTrip(req)
	})
}

// LoggingTransport logs every round trip at debug level. Headers are never logged.
func LoggingTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		evt := log.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("requestID", req.Header.Get(RequestIDHeader)).
			Bool("retry", IsRetry(req.Context())).
			Dur("elapsed", time.Since(start))
		if err != nil {
			evt.Err(err).Msg("request failed")
			return nil, err
		}
		evt.Int("status", resp.StatusCode).Msg("request")
		return resp, nil
	})
}

// attachTokenTransport sets the bearer credential on every request that is not a retry.
func (m *Manager) attachTokenTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if IsRetry(req.Context()) {
			return next.RoundTrip(req)
		}
		tok, err := m.Token()
		if err != nil {
			return next.RoundTrip(req)
		}
		req = req.Clone(req.Context())
		tok.SetAuthHeader(req)
		return next.RoundTrip(req)
	})
}

func bearerToken(req *http.Request) string {
	auth := req.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return auth[7:]
	}
	return ""
}
