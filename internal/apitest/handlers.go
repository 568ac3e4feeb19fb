package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-blog-admin/admins"
	"github.com/jrsteele09/go-blog-admin/blogs"
)

func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	b, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	admin, err := s.Admins.GetByEmail(body.Email)
	if err != nil || !admins.CheckPasswordHash(body.Password, admin.PasswordHash) {
		writeMessage(w, http.StatusNotFound, "Admin not found")
		return
	}
	if !admin.Active() {
		writeMessage(w, http.StatusForbidden, "Admin is inactive")
		return
	}

	refresh := uuid.NewString()
	s.mu.Lock()
	s.refreshTokens[refresh] = admin.ID
	token := s.issueToken(admin.ID)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: refresh, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	started, gate := s.refreshStarted, s.refreshGate
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRefresh {
		writeMessage(w, http.StatusForbidden, "Refresh token expired")
		return
	}
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	adminID, ok := s.refreshTokens[cookie.Value]
	if !ok {
		writeMessage(w, http.StatusForbidden, "Refresh token expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": s.issueToken(adminID)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		s.mu.Lock()
		delete(s.refreshTokens, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "", Path: "/", MaxAge: -1})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, admin *admins.Admin) {
	writeJSON(w, http.StatusOK, admin.Profile())
}

func (s *Server) listBlogs(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	q := r.URL.Query()
	status, category, title := q.Get("status"), q.Get("category"), strings.ToLower(q.Get("title"))

	s.mu.Lock()
	matched := make([]blogs.Blog, 0, len(s.blogOrder))
	for _, id := range s.blogOrder {
		b := s.blogs[id]
		if status != "" && string(b.Status) != status {
			continue
		}
		if category != "" && b.Category != category {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}
		matched = append(matched, *b)
	}
	s.mu.Unlock()

	page, pageErr := strconv.Atoi(q.Get("page"))
	limit, limitErr := strconv.Atoi(q.Get("limit"))
	if pageErr != nil || limitErr != nil || page < 1 || limit < 1 {
		writeJSON(w, http.StatusOK, blogs.Page{Blogs: matched})
		return
	}
	total := len(matched)
	totalPages := (total + limit - 1) / limit
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	writeJSON(w, http.StatusOK, blogs.Page{
		Blogs:       matched[start:end],
		CurrentPage: &page,
		TotalBlogs:  &total,
		TotalPages:  &totalPages,
	})
}

func (s *Server) getBlog(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	s.mu.Lock()
	b, ok := s.blogs[r.PathValue("id")]
	var out blogs.Blog
	if ok {
		out = *b
	}
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "Blog not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBlog(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	b, ok := s.parseBlogForm(w, r)
	if !ok {
		return
	}
	if b.Title == "" || b.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	if b.Status == "" {
		b.Status = blogs.StatusDraft
	}
	s.mu.Lock()
	id := s.insertBlog(b)
	out := *s.blogs[id]
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) editBlog(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	in, ok := s.parseBlogForm(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.blogs[r.PathValue("id")]
	if !found {
		writeMessage(w, http.StatusNotFound, "Blog not found")
		return
	}
	if in.Title != "" {
		b.Title = in.Title
	}
	if in.Content != "" {
		b.Content = in.Content
	}
	if in.Category != "" {
		b.Category = in.Category
	}
	if in.Status != "" {
		b.Status = in.Status
	}
	if in.Image != "" {
		b.Image = in.Image
	}
	b.UpdatedAt = s.timestamp()
	writeJSON(w, http.StatusOK, *b)
}

func (s *Server) toggleBlog(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	var body struct {
		Status blogs.Status `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.blogs[r.PathValue("id")]
	if !found {
		writeMessage(w, http.StatusNotFound, "Blog not found")
		return
	}
	if body.Status == "" {
		body.Status = b.Status.Toggle()
	}
	b.Status = body.Status
	b.UpdatedAt = s.timestamp()
	writeJSON(w, http.StatusOK, *b)
}

func (s *Server) listAdmins(w http.ResponseWriter, _ *http.Request, _ *admins.Admin) {
	list, err := s.Admins.List()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := admins.ListResponse{Admins: make([]admins.Admin, 0, len(list))}
	for _, a := range list {
		resp.Admins = append(resp.Admins, *a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) toggleAdmin(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	var body struct {
		Status admins.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.Valid() {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}
	id := r.PathValue("id")
	if err := s.Admins.SetStatus(id, body.Status); err != nil {
		writeMessage(w, http.StatusNotFound, "Admin not found")
		return
	}
	a, _ := s.Admins.GetByID(id)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) createAdmin(w http.ResponseWriter, r *http.Request, _ *admins.Admin) {
	var body admins.NewAdmin
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if _, err := s.Admins.GetByEmail(body.Email); err == nil {
		writeMessage(w, http.StatusConflict, "Admin already exists")
		return
	}
	hash, err := admins.HashPassword(body.Password)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	a := &admins.Admin{Email: body.Email, Name: body.Username, Status: admins.StatusActive, PasswordHash: hash}
	if err := s.Admins.Upsert(a); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Admin created", "admin": a})
}

func (s *Server) parseBlogForm(w http.ResponseWriter, r *http.Request) (blogs.Blog, bool) {
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "Expected multipart form data")
		return blogs.Blog{}, false
	}
	b := blogs.Blog{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
		Status:   blogs.Status(r.FormValue("status")),
	}
	if file, header, err := r.FormFile("image"); err == nil {
		file.Close()
		b.Image = "/uploads/" + header.Filename
	}
	return b, true
}

// insertBlog stores b under a new id. Callers hold s.mu.
func (s *Server) insertBlog(b blogs.Blog) string {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt == "" {
		b.CreatedAt = s.timestamp()
	}
	b.UpdatedAt = b.CreatedAt
	s.blogs[b.ID] = &b
	s.blogOrder = append(s.blogOrder, b.ID)
	return b.ID
}

func (s *Server) timestamp() string {
	return s.nowTime().UTC().Format("2006-01-02T15:04:05.000Z")
}
