package config

import (
	"strconv"
	"time"
)

type SessionConfig interface {
	GetRequestTimeout() time.Duration
	GetRefreshCoalescing() bool
	GetRateLimit() float64
	GetRateBurst() int
}

type Session struct {
	file *fileValues
}

var _ SessionConfig = Session{}

// GetRequestTimeout bounds every HTTP call, including a refresh and its retry.
func (s Session) GetRequestTimeout() time.Duration {
	if v := getEnv("BLOGADMIN_REQUEST_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if s.file != nil && s.file.RequestTimeout != "" {
		if d, err := time.ParseDuration(s.file.RequestTimeout); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// GetRefreshCoalescing reports whether concurrent 401s share one refresh call.
func (s Session) GetRefreshCoalescing() bool {
	if v := getEnv("BLOGADMIN_REFRESH_COALESCING", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if s.file != nil && s.file.RefreshCoalescing != nil {
		return *s.file.RefreshCoalescing
	}
	return true
}

// GetRateLimit is the outbound request rate in requests per second. Zero disables limiting.
func (s Session) GetRateLimit() float64 {
	if v := getEnv("BLOGADMIN_RATE_LIMIT", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	if s.file != nil && s.file.RateLimit > 0 {
		return s.file.RateLimit
	}
	return 0
}

func (s Session) GetRateBurst() int {
	if v := getEnv("BLOGADMIN_RATE_BURST", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if s.file != nil && s.file.RateBurst > 0 {
		return s.file.RateBurst
	}
	return 5
}
