package blogs

import (
	"io"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-blog-admin/internal/utils"
)

type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
)

// Toggle flips a post between published and draft.
func (s Status) Toggle() Status {
	if s == StatusPublished {
		return StatusDraft
	}
	return StatusPublished
}

type Blog struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	Category  string `json:"category,omitempty"`
	Status    Status `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Page is one page of GET /admin/blogs. The counters are null when the backend does not paginate.
type Page struct {
	Blogs       []Blog `json:"blogs"`
	CurrentPage *int   `json:"currentPage"`
	TotalBlogs  *int   `json:"totalBlogs"`
	TotalPages  *int   `json:"totalPages"`
}

// HasNext reports whether another page follows this one.
func (p Page) HasNext() bool {
	return p.CurrentPage != nil && p.TotalPages != nil && utils.Value(p.CurrentPage) < utils.Value(p.TotalPages)
}

// Query filters the admin blog listing. Nil Page or Limit are sent as "null".
type Query struct {
	Page     *int
	Limit    *int
	Status   string
	Category string
	Title    string
}

// Encode renders the query in the order the listing endpoint has always received it.
func (q Query) Encode() string {
	return "page=" + nullableInt(q.Page) +
		"&limit=" + nullableInt(q.Limit) +
		"&status=" + url.QueryEscape(q.Status) +
		"&title=" + url.QueryEscape(q.Title) +
		"&category=" + url.QueryEscape(q.Category)
}

func nullableInt(v *int) string {
	if v == nil {
		return "null"
	}
	return strconv.Itoa(*v)
}

// File is an image attached to a create or edit request.
type File struct {
	Name   string
	Reader io.Reader
}

// Input is the multipart form for creating or editing a post.
type Input struct {
	Title    string `validate:"required,max=200"`
	Content  string `validate:"required"`
	Category string `validate:"omitempty,max=64"`
	Status   Status `validate:"omitempty,oneof=published draft"`
	Image    *File
}
