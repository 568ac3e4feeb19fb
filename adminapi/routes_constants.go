package adminapi

// Route path constants
// Trailing-slash routes take the resource id appended
const (
	// Blog Routes
	RouteAdminBlogs = "/admin/blogs"
	RouteBlog       = "/blog/"
	RouteBlogCreate = "/blog/create"
	RouteBlogToggle = "/blog/toggle/"

	// Admin Routes
	RouteAdmins      = "/admin/admins"
	RouteAdminToggle = "/admin/toggle/"
	RouteAdminSignup = "/admin/signup"
)

// Cache key prefixes invalidated after mutations
const (
	blogsKey  = "blogs"
	adminsKey = "admins"
)
