package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/go-blog-admin/admins"
	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
	"github.com/jrsteele09/go-blog-admin/store"
)

var errSessionChanged = errors.New("session changed while the request was in flight")

// Manager owns the access token, the scope it is persisted in, the signed-in profile
// and the HTTP clients that talk to the admin API.
type Manager struct {
	apiURL *url.URL
	stores store.Stores
	jar    *refreshJar

	base     http.RoundTripper
	raw      *http.Client // login, refresh and logout; no interceptors
	client   *http.Client // rate limit, request id, attach token, refresh
	timeout  time.Duration
	limiter  *rate.Limiter
	coalesce bool
	refreshG singleflight.Group
	nowTime  func() time.Time

	mu          sync.RWMutex
	token       string
	generation  uint64
	state       State
	subscribers map[uint64]func(State)
	nextSubID   uint64
}

var _ oauth2.TokenSource = (*Manager)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// New creates a Manager for the admin API at apiURL. Both stores are required. The
// manager starts in the loading state until Initialize completes.
func New(apiURL string, stores store.Stores, options ...Option) (*Manager, error) {
	if apiURL == "" {
		return nil, errors.New("[session.New] apiURL is required")
	}
	u, err := url.Parse(strings.TrimSuffix(apiURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("[session.New] invalid apiURL %q", apiURL)
	}
	if err := stores.Validate(); err != nil {
		return nil, errors.Wrap(err, "[session.New]")
	}
	jar, err := newRefreshJar()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		apiURL:      u,
		stores:      stores,
		jar:         jar,
		base:        http.DefaultTransport,
		coalesce:    true,
		nowTime:     time.Now,
		state:       State{IsLoading: true},
		subscribers: make(map[uint64]func(State)),
	}

	// Apply optional configuration
	for _, opt := range options {
		opt(m)
	}

	m.raw = &http.Client{
		Transport: ChainTransport(m.base, RequestIDTransport, LoggingTransport),
		Jar:       jar,
		Timeout:   m.timeout,
	}
	m.client = &http.Client{
		Transport: ChainTransport(m.base,
			RateLimitTransport(m.limiter),
			RequestIDTransport,
			LoggingTransport,
			m.attachTokenTransport,
			m.refreshTransport,
		),
		Jar:     jar,
		Timeout: m.timeout,
	}
	return m, nil
}

// Client is the managed client. Requests carry the bearer token and are transparently
// retried once after a successful refresh.
func (m *Manager) Client() *http.Client {
	return m.client
}

// URL resolves an API path against the configured base URL.
func (m *Manager) URL(path string) string {
	return m.apiURL.String() + path
}

func (m *Manager) endpointURL(path string) *url.URL {
	u := *m.apiURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return &u
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers fn to receive every state change. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

// update applies fn to the state under the lock and notifies subscribers with the result.
func (m *Manager) update(fn func(*State)) {
	m.mutate(func(s *State) bool {
		fn(s)
		return true
	})
}

// mutate runs fn with m.mu held so it can check and change the token, the generation and
// the state in one step. Subscribers are notified outside the lock when fn returns true.
func (m *Manager) mutate(fn func(*State) bool) bool {
	m.mu.Lock()
	if !fn(&m.state) {
		m.mu.Unlock()
		return false
	}
	snapshot := m.state
	subs := make([]func(State), 0, len(m.subscribers))
	for _, s := range m.subscribers {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s(snapshot)
	}
	return true
}

func (m *Manager) setLoading(loading bool) {
	m.update(func(s *State) { s.IsLoading = loading })
}

func (m *Manager) currentGeneration() (uint64, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation, m.token
}

// Token implements oauth2.TokenSource over the in-memory access token.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	raw := m.token
	m.mu.RUnlock()

	if raw == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := tokenExpiry(raw); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// AccessTokenExpiry decodes the exp claim of the current token without verifying it.
// It reports false when there is no token or the token is not a JWT with an expiry.
func (m *Manager) AccessTokenExpiry() (time.Time, bool) {
	_, raw := m.currentGeneration()
	if raw == "" {
		return time.Time{}, false
	}
	return tokenExpiry(raw)
}

// TokenTTL is the time left before the current access token expires.
func (m *Manager) TokenTTL() (time.Duration, bool) {
	exp, ok := m.AccessTokenExpiry()
	if !ok {
		return 0, false
	}
	return exp.Sub(m.nowTime()), true
}

func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Initialize restores a persisted session. The durable store is read first, then the
// ephemeral one. A restored session is marked authenticated before the profile fetch
// starts. Loading is cleared when the sequence completes whatever its outcome.
func (m *Manager) Initialize(ctx context.Context) error {
	defer m.setLoading(false)
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, scope := range []store.Scope{store.ScopeDurable, store.ScopeEphemeral} {
		repo := m.stores.For(scope)
		tok, err := repo.Get(store.AccessTokenKey)
		if errors.Is(err, store.ErrNotFound) || (err == nil && tok == "") {
			continue
		}
		if err != nil {
			log.Err(err).Str("scope", scope.String()).Msg("failed to read persisted token")
			continue
		}

		if cookies, err := repo.Get(store.RefreshCookiesKey); err == nil {
			if err := m.jar.Import(m.endpointURL(RouteRefresh), cookies); err != nil {
				log.Warn().Err(err).Str("scope", scope.String()).Msg("discarding persisted refresh cookies")
			}
		}

		m.mutate(func(s *State) bool {
			m.token = tok
			m.generation++
			s.Session = m.generation
			s.IsAuthenticated = true
			s.Scope = scope
			s.LogoutReason = LogoutNone
			return true
		})
		log.Debug().Str("scope", scope.String()).Msg("restored session")

		_ = m.FetchProfile(ctx)
		return nil
	}
	return nil
}

// Login exchanges credentials for an access token. The token is persisted to the durable
// store when RememberMe is set and to the ephemeral store otherwise, and the other store
// is cleared. Rejections are returned as *errors.AuthenticationError.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	m.setLoading(true)
	defer m.setLoading(false)

	body, err := json.Marshal(loginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] marshal credentials")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL(RouteLogin), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.raw.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &apperrors.NetworkError{Op: "login", URL: m.apiURL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewAuthenticationError(resp.StatusCode, readMessage(resp.Body))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return errors.Wrap(err, "[Manager.Login] decode response")
	}
	if tr.AccessToken == "" {
		return apperrors.ErrMissingAccessToken
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	scope := store.ScopeEphemeral
	if creds.RememberMe {
		scope = store.ScopeDurable
	}
	var persistErr error
	m.mutate(func(s *State) bool {
		if persistErr = m.persist(scope, tr.AccessToken); persistErr != nil {
			return false
		}
		m.token = tr.AccessToken
		m.generation++
		*s = State{Session: m.generation, IsAuthenticated: true, IsLoading: true, Scope: scope}
		return true
	})
	if persistErr != nil {
		return persistErr
	}
	log.Info().Str("scope", scope.String()).Msg("logged in")

	_ = m.FetchProfile(ctx)
	return nil
}

// persist writes the token and the refresh cookies to scope and clears the other scope.
// Callers hold m.mu.
func (m *Manager) persist(scope store.Scope, token string) error {
	target := m.stores.For(scope)
	if target == nil {
		return errors.Errorf("[Manager.persist] no store for scope %s", scope)
	}
	if err := target.Set(store.AccessTokenKey, token); err != nil {
		return errors.Wrapf(err, "[Manager.persist] store token in %s scope", scope)
	}
	if cookies, err := m.jar.Export(m.endpointURL(RouteRefresh)); err != nil {
		log.Warn().Err(err).Msg("failed to export refresh cookies")
	} else if err := target.Set(store.RefreshCookiesKey, cookies); err != nil {
		log.Warn().Err(err).Str("scope", scope.String()).Msg("failed to persist refresh cookies")
	}
	if other := m.stores.For(scope.Other()); other != nil {
		clearRepo(other, scope.Other())
	}
	return nil
}

func clearRepo(repo store.Repo, scope store.Scope) {
	for _, key := range []string{store.AccessTokenKey, store.RefreshCookiesKey} {
		if err := repo.Delete(key); err != nil {
			log.Err(err).Str("scope", scope.String()).Str("key", key).Msg("failed to clear persisted session")
		}
	}
}

// FetchProfile loads the signed-in admin through the managed client and replaces
// CurrentUser. On failure the error is logged and returned and the state is left as is.
func (m *Manager) FetchProfile(ctx context.Context) error {
	gen, _ := m.currentGeneration()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL(RouteMe), nil)
	if err != nil {
		return errors.Wrap(err, "[Manager.FetchProfile] build request")
	}
	resp, err := m.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = &apperrors.NetworkError{Op: "fetch profile", URL: m.apiURL.String(), Err: err}
		log.Err(err).Msg("failed to fetch profile")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &apperrors.APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
		log.Err(err).Msg("failed to fetch profile")
		return err
	}
	var profile admins.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		err = errors.Wrap(err, "[Manager.FetchProfile] decode profile")
		log.Err(err).Msg("failed to fetch profile")
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	applied := m.mutate(func(s *State) bool {
		if m.generation != gen || m.token == "" {
			return false
		}
		s.CurrentUser = &profile
		s.IsSuperAdmin = profile.SuperAdmin
		return true
	})
	if !applied {
		return errSessionChanged
	}
	return nil
}

// Logout ends the session. The logout endpoint is called best-effort and the token is
// then cleared from both scopes whatever the outcome. Calling it again is harmless.
func (m *Manager) Logout(ctx context.Context) {
	_, token := m.currentGeneration()
	m.logout(ctx, LogoutUserRequested, token, 0)
}

func (m *Manager) logout(ctx context.Context, reason LogoutReason, token string, gen uint64) {
	m.callLogout(ctx, token)
	if m.clear(reason, gen) {
		log.Info().Str("reason", reason.String()).Msg("logged out")
	}
}

func (m *Manager) callLogout(ctx context.Context, token string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL(RouteLogout), nil)
	if err != nil {
		log.Err(err).Msg("failed to build logout request")
		return
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	resp, err := m.raw.Do(req)
	if err != nil {
		log.Err(err).Msg("logout request failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Msg("logout endpoint rejected the request")
	}
}

// clear wipes both scopes and resets the state, recording reason. A non-zero gen limits
// the clear to that session so a newer login survives.
func (m *Manager) clear(reason LogoutReason, gen uint64) bool {
	return m.mutate(func(s *State) bool {
		if gen != 0 && m.generation != gen {
			return false
		}
		clearRepo(m.stores.Durable, store.ScopeDurable)
		clearRepo(m.stores.Ephemeral, store.ScopeEphemeral)
		m.jar.Reset()
		m.token = ""
		m.generation++
		*s = State{Session: m.generation, LogoutReason: reason}
		return true
	})
}

// forceLogout ends the session for gen only. A newer login is left alone.
func (m *Manager) forceLogout(gen uint64, reason LogoutReason, cause error) {
	m.mu.RLock()
	current, token := m.generation, m.token
	m.mu.RUnlock()
	if current != gen || token == "" {
		return
	}

	log.Warn().Err(cause).Str("reason", reason.String()).Msg("session ended by the server")
	ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout())
	defer cancel()
	m.logout(ctx, reason, token, gen)
}

func (m *Manager) requestTimeout() time.Duration {
	if m.timeout > 0 {
		return m.timeout
	}
	return 30 * time.Second
}

// maxMessageBytes caps how much of an error body is read for its message.
const maxMessageBytes = 64 << 10

func readMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxMessageBytes))
	if err != nil || len(b) == 0 {
		return ""
	}
	var mr messageResponse
	if err := json.Unmarshal(b, &mr); err != nil {
		return strings.TrimSpace(string(b))
	}
	return mr.Message
}
