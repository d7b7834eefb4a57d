package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAPIPing           = "/api/ping"
	RouteAPILogin          = "/api/login"
	RouteAPILogout         = "/api/logout"
	RouteAPIUser           = "/api/user"
	RouteAPIForgotPassword = "/api/forgot-password"
	RouteAPIResetPassword  = "/api/reset-password"

	// Demo Routes
	RouteAPIExample   = "/api/example"
	RouteAPIV1Hello   = "/api/v1/hello"
	RouteAPIV1Example = "/api/v1/example"
)
