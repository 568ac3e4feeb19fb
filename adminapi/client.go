package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
	"github.com/jrsteele09/go-blog-admin/querycache"
	"github.com/jrsteele09/go-blog-admin/session"
)

const defaultCacheTTL = 30 * time.Second

// Session is what the client needs from the session manager.
type Session interface {
	Client() *http.Client
	URL(path string) string
	State() session.State
	Subscribe(fn func(session.State)) func()
}

// Client is the typed client for the blog and admin endpoints. Reads are cached and
// mutations invalidate the affected resource.
type Client struct {
	session     Session
	cache       *querycache.Cache
	cacheTTL    time.Duration
	unsubscribe func()

	// sessionID is the session the cached results belong to.
	sessionID atomic.Uint64
}

type Option func(*Client)

// WithCacheTTL sets how long list and get results are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

func New(sess Session, options ...Option) (*Client, error) {
	if sess == nil {
		return nil, errors.New("[adminapi.New] session is required")
	}
	c := &Client{session: sess, cacheTTL: defaultCacheTTL}
	for _, opt := range options {
		opt(c)
	}
	c.cache = querycache.New(c.cacheTTL)
	c.sessionID.Store(sess.State().Session)
	c.unsubscribe = sess.Subscribe(func(s session.State) {
		if prev := c.sessionID.Swap(s.Session); prev != s.Session || !s.IsAuthenticated {
			c.cache.Clear()
		}
	})
	return c, nil
}

// remember caches v unless the session changed since sid was read.
func (c *Client) remember(sid uint64, key string, v any) {
	if c.session.State().Session != sid {
		return
	}
	c.cache.Set(key, v)
}

// Close stops cache maintenance and detaches from the session.
func (c *Client) Close() {
	c.unsubscribe()
	c.cache.Close()
}

// InvalidateAll drops every cached result.
func (c *Client) InvalidateAll() {
	c.cache.Clear()
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.session.URL(path), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}
	return c.newRequest(ctx, method, path, bytes.NewReader(b), "application/json")
}

// do sends req with the managed client and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) error {
	resp, err := c.session.Client().Do(req)
	if err != nil {
		return c.handleRequestError(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "invalid response from backend")
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return errors.Wrap(ctx.Err(), "request canceled")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(ctx.Err(), "request timed out")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &apperrors.NetworkError{Op: op, URL: c.session.URL(""), Err: err}
}

// handleErrorResponse turns a non-2xx response into an APIError. A 401 after the
// session was ended by the server is reported as an expired session.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var msg messageResponse
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(b, &msg)
	apiErr := &apperrors.APIError{Status: resp.StatusCode, Message: msg.Message}

	if resp.StatusCode == http.StatusUnauthorized {
		if st := c.session.State(); !st.IsAuthenticated && st.LogoutReason.Forced() {
			return &apperrors.SessionExpiredError{Cause: apiErr}
		}
	}
	log.Debug().Int("status", resp.StatusCode).Str("message", msg.Message).Msg("backend rejected request")
	return apiErr
}
