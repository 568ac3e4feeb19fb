package session

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Option func(*Manager)

// WithHTTPClient supplies the client whose Transport and Timeout seed the raw and managed clients.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if c == nil {
			return
		}
		if c.Transport != nil {
			m.base = c.Transport
		}
		m.timeout = c.Timeout
	}
}

func WithBaseTransport(rt http.RoundTripper) Option {
	return func(m *Manager) {
		if rt != nil {
			m.base = rt
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithCoalescedRefresh controls whether concurrent 401s share a single refresh call.
func WithCoalescedRefresh(enabled bool) Option {
	return func(m *Manager) {
		m.coalesce = enabled
	}
}

// WithRateLimit throttles outbound requests on the managed client. A zero limit disables it.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(m *Manager) {
		if limit <= 0 {
			m.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(limit, burst)
	}
}
