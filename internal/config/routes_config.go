package config

type RoutesConfig interface {
	GetSignInPage() string
	GetErrorPage() string
	GetDefaultLoginRedirect() string
	GetAPIAuthPrefix() string
	GetPublicRoutes() []string
	GetAuthRoutes() []string
	GetMatcherExclusions() []string
}

func (s Settings) GetSignInPage() string {
	return s.SignInPage
}

func (s Settings) GetErrorPage() string {
	return s.ErrorPage
}

// GetDefaultLoginRedirect is where a signed-in user lands after login or when
// visiting an auth-only page.
func (s Settings) GetDefaultLoginRedirect() string {
	return s.DefaultLoginRedirect
}

func (s Settings) GetAPIAuthPrefix() string {
	return s.APIAuthPrefix
}

func (s Settings) GetPublicRoutes() []string {
	return append([]string(nil), s.PublicRoutes...)
}

func (s Settings) GetAuthRoutes() []string {
	return append([]string(nil), s.AuthRoutes...)
}

// GetMatcherExclusions lists path prefixes (without the leading slash) the
// route guard never sees.
func (s Settings) GetMatcherExclusions() []string {
	return append([]string(nil), s.MatcherExclusions...)
}
