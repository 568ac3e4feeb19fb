package adminapi

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-blog-admin/blogs"
	"github.com/jrsteele09/go-blog-admin/session"
)

// ListBlogs returns one page of posts matching q.
func (c *Client) ListBlogs(ctx context.Context, q blogs.Query) (*blogs.Page, error) {
	key := blogsKey + ":list:" + q.Encode()
	if v, ok := c.cache.Get(key); ok {
		page := v.(blogs.Page)
		return &page, nil
	}

	sid := c.session.State().Session
	req, err := c.newRequest(ctx, http.MethodGet, RouteAdminBlogs+"?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	var page blogs.Page
	if err := c.do(ctx, "list blogs", req, &page); err != nil {
		return nil, err
	}
	c.remember(sid, key, page)
	return &page, nil
}

func (c *Client) GetBlog(ctx context.Context, id string) (*blogs.Blog, error) {
	if id == "" {
		return nil, errors.New("[GetBlog] id is required")
	}
	key := blogsKey + ":get:" + id
	if v, ok := c.cache.Get(key); ok {
		b := v.(blogs.Blog)
		return &b, nil
	}

	sid := c.session.State().Session
	req, err := c.newRequest(ctx, http.MethodGet, RouteBlog+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}
	var b blogs.Blog
	if err := c.do(ctx, "get blog", req, &b); err != nil {
		return nil, err
	}
	c.remember(sid, key, b)
	return &b, nil
}

// CreateBlog uploads a new post as multipart form data.
func (c *Client) CreateBlog(ctx context.Context, in blogs.Input) (*blogs.Blog, error) {
	if err := session.ValidateStruct(in); err != nil {
		return nil, err
	}
	body, contentType, err := blogForm(in)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, RouteBlogCreate, body, contentType)
	if err != nil {
		return nil, err
	}
	var b blogs.Blog
	if err := c.do(ctx, "create blog", req, &b); err != nil {
		return nil, err
	}
	c.cache.InvalidatePrefix(blogsKey)
	return &b, nil
}

// EditBlog replaces the fields of post id with in.
func (c *Client) EditBlog(ctx context.Context, id string, in blogs.Input) (*blogs.Blog, error) {
	if id == "" {
		return nil, errors.New("[EditBlog] id is required")
	}
	if err := session.ValidateStruct(in); err != nil {
		return nil, err
	}
	body, contentType, err := blogForm(in)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPut, RouteBlog+url.PathEscape(id), body, contentType)
	if err != nil {
		return nil, err
	}
	var b blogs.Blog
	if err := c.do(ctx, "edit blog", req, &b); err != nil {
		return nil, err
	}
	c.cache.InvalidatePrefix(blogsKey)
	return &b, nil
}

// ToggleBlogStatus sets the status of post id. An empty status lets the backend flip it.
func (c *Client) ToggleBlogStatus(ctx context.Context, id string, status blogs.Status) (*blogs.Blog, error) {
	if id == "" {
		return nil, errors.New("[ToggleBlogStatus] id is required")
	}
	payload := struct {
		Status blogs.Status `json:"status,omitempty"`
	}{Status: status}
	req, err := c.newJSONRequest(ctx, http.MethodPut, RouteBlogToggle+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}
	var b blogs.Blog
	if err := c.do(ctx, "toggle blog", req, &b); err != nil {
		return nil, err
	}
	c.cache.InvalidatePrefix(blogsKey)
	return &b, nil
}

// blogForm encodes in as the multipart body the blog endpoints expect.
func blogForm(in blogs.Input) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"title", in.Title},
		{"content", in.Content},
		{"category", in.Category},
		{"status", string(in.Status)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", errors.Wrapf(err, "[blogForm] write %s", f.name)
		}
	}
	if in.Image != nil && in.Image.Reader != nil {
		part, err := w.CreateFormFile("image", in.Image.Name)
		if err != nil {
			return nil, "", errors.Wrap(err, "[blogForm] create image part")
		}
		if _, err := io.Copy(part, in.Image.Reader); err != nil {
			return nil, "", errors.Wrap(err, "[blogForm] copy image")
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "[blogForm] close form")
	}
	return &buf, w.FormDataContentType(), nil
}
