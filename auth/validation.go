package auth

import (
	"net/url"
	"strings"
)

// SafeCallbackURL returns raw when it is a local path on this site, and
// fallback otherwise. Absolute URLs, scheme-relative URLs and backslash
// tricks are all rejected so the login redirect cannot leave the site.
func SafeCallbackURL(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
