package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteAPIPing, s.api(s.PingHandler()))

	// LOGIN / LOGOUT / IDENTITY
	s.RegisterRouteHandler("POST "+RouteAPILogin, s.api(s.LoginHandler()))
	s.RegisterRouteHandler("POST "+RouteAPILogout, s.api(s.LogoutHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("GET "+RouteAPIUser, s.api(s.UserHandler(), s.RequireAuth()))

	// PASSWORD RESET
	s.RegisterRouteHandler("POST "+RouteAPIForgotPassword, s.api(s.ForgotPasswordHandler()))
	s.RegisterRouteHandler("POST "+RouteAPIResetPassword, s.api(s.ResetPasswordHandler()))

	// DEMO
	s.RegisterRouteHandler("GET "+RouteAPIExample, s.api(s.ExampleHandler()))
	s.RegisterRouteHandler("GET "+RouteAPIV1Hello, s.api(s.HelloV1Handler()))
	s.RegisterRouteHandler("GET "+RouteAPIV1Example, s.api(s.ExampleV1Handler()))
}

// api chains the standard API middleware in front of a handler, innermost
// extras (e.g. RequireAuth) last.
func (s *Server) api(handler http.HandlerFunc, extra ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	mw := s.APIMiddleware()
	mw = append(mw, extra...)
	return ChainMiddleware(handler, mw...)
}
