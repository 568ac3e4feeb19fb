package session

// Session routes of the admin API
const (
	RouteLogin   = "/admin/login"
	RouteLogout  = "/admin/logout"
	RouteRefresh = "/admin/refresh"
	RouteMe      = "/admin/me"
)

// Server messages on 401 responses that drive the refresh interceptor
const (
	InvalidTokenMessage = "Invalid token"
	NoSessionMessage    = "No session user provided"
)
