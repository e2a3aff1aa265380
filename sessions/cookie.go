package sessions

import (
	"net/http"
	"time"
)

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// SetCookie writes the signed session token as an HttpOnly cookie.
func SetCookie(w http.ResponseWriter, opts CookieOptions, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie returns the raw session token from the request, or "" when the
// cookie is absent.
func ReadCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
