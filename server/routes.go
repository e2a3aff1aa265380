package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.LoginRateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthError, ChainMiddleware(s.ErrorPageHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordSubmissionHandler(), s.HTMLMiddleWare()...))

	// Signed-in pages
	s.RegisterRouteHandler("GET "+RouteChangePassword, ChainMiddleware(s.ChangePasswordPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfilePageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteProfile, ChainMiddleware(s.ProfileSubmissionHandler(), s.HTMLMiddleWare()...))

	// API routes, served by the /api router
	s.RegisterAPIRoute(http.MethodPost, RouteAPILogin, ChainMiddleware(s.APILoginHandler(), s.LoginRateLimitMiddleware))
	s.RegisterAPIRoute(http.MethodGet, RouteAPISession, s.SessionHandler())
	for _, route := range proxyRoutes {
		s.RegisterAPIRoute(route.Method, route.Route, s.ProxyHandler(route))
	}
	s.api.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "")
	})
	s.api.HandleMethodNotAllowed = true
	s.api.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	s.RegisterRouteHandler("/api/", ChainMiddleware(s.api.ServeHTTP, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteFavicon, ChainMiddleware(s.faviconHandler(), s.StaticMiddleware()...))

	// Everything else is guarded like a page and then reported missing.
	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare()...))
}
