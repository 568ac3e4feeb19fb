// Package apitest runs an in-process fake of the blog admin REST API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrsteele09/go-blog-admin/admins"
	"github.com/jrsteele09/go-blog-admin/admins/repofake"
	"github.com/jrsteele09/go-blog-admin/blogs"
)

const (
	RefreshCookieName = "refreshToken"

	InvalidTokenMessage = "Invalid token"
	NoSessionMessage    = "No session user provided"
)

// Route patterns, also the keys for Calls and LastRequest.
const (
	LoginRoute        = "POST /admin/login"
	LogoutRoute       = "GET /admin/logout"
	RefreshRoute      = "GET /admin/refresh"
	MeRoute           = "GET /admin/me"
	ListBlogsRoute    = "GET /admin/blogs"
	GetBlogRoute      = "GET /blog/{id}"
	CreateBlogRoute   = "POST /blog/create"
	EditBlogRoute     = "PUT /blog/{id}"
	ToggleBlogRoute   = "PUT /blog/toggle/{id}"
	ListAdminsRoute   = "GET /admin/admins"
	ToggleAdminRoute  = "PUT /admin/toggle/{id}"
	CreateAdminRoute  = "POST /admin/signup"
	defaultTokenTTL   = 15 * time.Minute
	maxMultipartBytes = 10 << 20
)

// Request is what the fake saw for the most recent call to a route.
type Request struct {
	Authorization string
	RequestID     string
	Query         string
	Body          []byte
}

type failure struct {
	status  int
	message string
}

// Server is the fake backend. Behaviour can be scripted between calls.
type Server struct {
	*httptest.Server
	Admins *repofake.FakeAdminRepo

	signingKey []byte
	tokenTTL   time.Duration
	nowTime    func() time.Time

	mu             sync.Mutex
	validTokens    map[string]string // access token to admin id
	refreshTokens  map[string]string // refresh cookie to admin id
	blogs          map[string]*blogs.Blog
	blogOrder      []string
	calls          map[string]int
	last           map[string]Request
	failures       map[string]failure
	failRefresh    bool
	rejectAll      bool
	endSessions    bool
	refreshStarted chan struct{}
	refreshGate    chan struct{}
}

type Option func(*Server)

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// NewServer starts the fake and closes it when the test ends.
func NewServer(t testing.TB, options ...Option) *Server {
	t.Helper()
	s := &Server{
		Admins:        repofake.NewFakeAdminRepo(),
		signingKey:    []byte(uuid.NewString()),
		tokenTTL:      defaultTokenTTL,
		nowTime:       time.Now,
		validTokens:   make(map[string]string),
		refreshTokens: make(map[string]string),
		blogs:         make(map[string]*blogs.Blog),
		calls:         make(map[string]int),
		last:          make(map[string]Request),
		failures:      make(map[string]failure),
	}
	for _, opt := range options {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(LoginRoute, s.record(s.login))
	mux.HandleFunc(LogoutRoute, s.record(s.logout))
	mux.HandleFunc(RefreshRoute, s.record(s.refresh))
	mux.HandleFunc(MeRoute, s.record(s.authenticated(s.me)))
	mux.HandleFunc(ListBlogsRoute, s.record(s.authenticated(s.listBlogs)))
	mux.HandleFunc(GetBlogRoute, s.record(s.authenticated(s.getBlog)))
	mux.HandleFunc(CreateBlogRoute, s.record(s.authenticated(s.createBlog)))
	mux.HandleFunc(EditBlogRoute, s.record(s.authenticated(s.editBlog)))
	mux.HandleFunc(ToggleBlogRoute, s.record(s.authenticated(s.toggleBlog)))
	mux.HandleFunc(ListAdminsRoute, s.record(s.authenticated(s.superAdmin(s.listAdmins))))
	mux.HandleFunc(ToggleAdminRoute, s.record(s.authenticated(s.superAdmin(s.toggleAdmin))))
	mux.HandleFunc(CreateAdminRoute, s.record(s.authenticated(s.superAdmin(s.createAdmin))))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddAdmin seeds an admin account and returns it.
func (s *Server) AddAdmin(t testing.TB, email, password, name string, superAdmin bool, status admins.Status) *admins.Admin {
	t.Helper()
	hash, err := admins.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a := &admins.Admin{Email: email, Name: name, SuperAdmin: superAdmin, Status: status, PasswordHash: hash}
	if err := s.Admins.Upsert(a); err != nil {
		t.Fatalf("upsert admin: %v", err)
	}
	return a
}

// AddBlog seeds a blog post and returns its id.
func (s *Server) AddBlog(b blogs.Blog) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertBlog(b)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validTokens = make(map[string]string)
}

// FailRefresh makes the refresh endpoint reject every request.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RejectAllTokens makes authenticated routes answer "Invalid token" even for fresh tokens.
func (s *Server) RejectAllTokens(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = reject
}

// EndSessions makes authenticated routes answer "No session user provided".
func (s *Server) EndSessions(end bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endSessions = end
}

// FailRoute makes route answer status with message until cleared with status 0.
func (s *Server) FailRoute(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = failure{status: status, message: message}
}

// HoldRefresh blocks refresh requests until the returned release func is called. started
// receives one value per refresh request that reaches the handler.
func (s *Server) HoldRefresh() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStarted = make(chan struct{}, 16)
	s.refreshGate = make(chan struct{})
	var once sync.Once
	gate := s.refreshGate
	return s.refreshStarted, func() { once.Do(func() { close(gate) }) }
}

func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) LastRequest(route string) Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[route]
}

// IssueToken mints a valid access token for admin id, as login would.
func (s *Server) IssueToken(adminID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(adminID)
}

func (s *Server) issueToken(adminID string) string {
	now := s.nowTime()
	claims := jwt.RegisteredClaims{
		Subject:   adminID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		panic(err)
	}
	s.validTokens[signed] = adminID
	return signed
}

func (s *Server) record(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := readBody(r)
		s.mu.Lock()
		s.calls[r.Pattern]++
		s.last[r.Pattern] = Request{
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Query:         r.URL.RawQuery,
			Body:          body,
		}
		f, failing := s.failures[r.Pattern]
		s.mu.Unlock()

		if failing {
			writeMessage(w, f.status, f.message)
			return
		}
		next(w, r)
	}
}

// authenticated checks the bearer token the way the real backend does.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, *admins.Admin)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		endSessions, rejectAll := s.endSessions, s.rejectAll
		s.mu.Unlock()

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if endSessions || !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, NoSessionMessage)
			return
		}
		adminID, valid := s.verify(raw)
		if rejectAll || !valid {
			writeMessage(w, http.StatusUnauthorized, InvalidTokenMessage)
			return
		}
		admin, err := s.Admins.GetByID(adminID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, NoSessionMessage)
			return
		}
		next(w, r, admin)
	}
}

func (s *Server) superAdmin(next func(http.ResponseWriter, *http.Request, *admins.Admin)) func(http.ResponseWriter, *http.Request, *admins.Admin) {
	return func(w http.ResponseWriter, r *http.Request, admin *admins.Admin) {
		if !admin.SuperAdmin {
			writeMessage(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r, admin)
	}
}

func (s *Server) verify(raw string) (string, bool) {
	s.mu.Lock()
	adminID, known := s.validTokens[raw]
	s.mu.Unlock()
	if !known {
		return "", false
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.nowTime))
	if err != nil || claims.Subject != adminID {
		return "", false
	}
	return adminID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
