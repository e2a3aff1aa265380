package routeguard

import (
	"net/http"

	"github.com/jrsteele09/go-chat-portal/internal/logutil"
)

// SessionCheck reports whether r carries a valid session. Any decode
// failure must be reported as false.
type SessionCheck func(r *http.Request) bool

// Middleware applies the guard to every request it wraps.
func (g *Guard) Middleware(hasSession SessionCheck) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !g.Matches(r.URL.Path) {
				next(w, r)
				return
			}

			decision := g.Decide(r.URL.Path, hasSession(r))
			if decision.Action == Allow {
				next(w, r)
				return
			}

			target := decision.RedirectURL(r.URL.RequestURI())
			logger := logutil.GetOrDefault(r.Context())
			logger.Debug().Str("path", r.URL.Path).Stringer("class", decision.Class).Str("location", target).Msg("route guard redirect")
			http.Redirect(w, r, target, http.StatusFound)
		}
	}
}
