package adminapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-blog-admin/admins"
	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
	"github.com/jrsteele09/go-blog-admin/session"
)

// ListAdmins returns every admin account. Only super-admins may call it.
func (c *Client) ListAdmins(ctx context.Context) ([]admins.Admin, error) {
	key := adminsKey + ":list"
	if v, ok := c.cache.Get(key); ok {
		return v.([]admins.Admin), nil
	}

	sid := c.session.State().Session
	req, err := c.newRequest(ctx, http.MethodGet, RouteAdmins, nil, "")
	if err != nil {
		return nil, err
	}
	var resp admins.ListResponse
	if err := c.do(ctx, "list admins", req, &resp); err != nil {
		return nil, err
	}
	c.remember(sid, key, resp.Admins)
	return resp.Admins, nil
}

func (c *Client) ToggleAdminStatus(ctx context.Context, id string, status admins.Status) (*admins.Admin, error) {
	if id == "" {
		return nil, errors.New("[ToggleAdminStatus] id is required")
	}
	if !status.Valid() {
		return nil, &apperrors.ValidationError{Field: "status", Message: "must be active or inactive"}
	}
	payload := struct {
		Status admins.Status `json:"status"`
	}{Status: status}
	req, err := c.newJSONRequest(ctx, http.MethodPut, RouteAdminToggle+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}
	var a admins.Admin
	if err := c.do(ctx, "toggle admin", req, &a); err != nil {
		return nil, err
	}
	c.cache.InvalidatePrefix(adminsKey)
	return &a, nil
}

// CreateAdmin signs up a new admin. The returned admin is nil when the backend does not echo it.
func (c *Client) CreateAdmin(ctx context.Context, in admins.NewAdmin) (*admins.Admin, error) {
	if err := session.ValidateStruct(in); err != nil {
		return nil, err
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, RouteAdminSignup, in)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Message string        `json:"message"`
		Admin   *admins.Admin `json:"admin"`
	}
	if err := c.do(ctx, "create admin", req, &resp); err != nil {
		return nil, err
	}
	c.cache.InvalidatePrefix(adminsKey)
	return resp.Admin, nil
}
