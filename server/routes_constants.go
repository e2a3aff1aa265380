package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Pages
	RouteHome           = "/"
	RouteAuthLogin      = "/auth/login"
	RouteAuthLogout     = "/auth/logout"
	RouteRegister       = "/auth/register"
	RouteForgotPassword = "/auth/forgot-password"
	RouteAuthError      = "/auth/error"
	RouteChangePassword = "/auth/change-password"
	RouteProfile        = "/private/profile"

	// Auth API
	RouteAPILogin          = "/api/auth/login"
	RouteAPISession        = "/api/auth/session"
	RouteAPIRegister       = "/api/auth/register"
	RouteAPILogout         = "/api/auth/logout"
	RouteAPIRefreshToken   = "/api/auth/refreshToken"
	RouteAPIAuthentication = "/api/auth/authentication"
	RouteAPIGetOTP         = "/api/auth/getOTP"
	RouteAPIVerifyOTP      = "/api/auth/verifyOTP"
	RouteAPIResetPassword  = "/api/auth/resetPassword"
	RouteAPIGetInfo        = "/api/auth/getInfo"
	RouteAPIUpdateInfo     = "/api/auth/updateInfo"
	RouteAPIChangePassword = "/api/auth/changePassword"

	// Static Asset Routes (patterns)
	RouteStatic  = "/static/{file...}"
	RouteFavicon = "/favicon.ico"
)
