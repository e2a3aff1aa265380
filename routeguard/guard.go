package routeguard

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/jrsteele09/go-chat-portal/internal/config"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
)

// CallbackParam carries the originally requested URI to the sign-in page.
const CallbackParam = "callbackUrl"

// Action is what the guard tells the middleware to do.
type Action int

const (
	Allow Action = iota
	Redirect
)

// Decision is the result of evaluating one request.
type Decision struct {
	Action   Action
	Class    Classification
	Location string // redirect target, set when Action is Redirect
	Callback bool   // append the requested URI as CallbackParam
}

// RedirectURL returns the Location, with requestURI attached as the callback
// when the decision asks for one.
func (d Decision) RedirectURL(requestURI string) string {
	if !d.Callback || requestURI == "" {
		return d.Location
	}
	return d.Location + "?" + url.Values{CallbackParam: []string{requestURI}}.Encode()
}

// Guard evaluates its rules in order; the first match wins.
type Guard struct {
	rules           []Rule
	exclusions      []string
	signInPage      string
	defaultRedirect string
}

// New builds the rule table from cfg and rejects configurations that would
// loop: a path in two classes, an auth-only post-login page, or a protected
// sign-in page.
func New(cfg config.RoutesConfig) (*Guard, error) {
	public := cfg.GetPublicRoutes()
	authOnly := cfg.GetAuthRoutes()

	for _, p := range public {
		if slices.Contains(authOnly, p) {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "route %q is both public and auth-only", p)
		}
	}

	g := &Guard{
		rules: []Rule{
			prefixRule(APIAuthPrefix, cfg.GetAPIAuthPrefix()),
			exactRule(AuthOnly, authOnly),
			exactRule(Public, public),
			catchAllRule(Protected),
		},
		exclusions:      cfg.GetMatcherExclusions(),
		signInPage:      cfg.GetSignInPage(),
		defaultRedirect: cfg.GetDefaultLoginRedirect(),
	}

	if c := g.Classify(g.defaultRedirect); c == AuthOnly {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "post-login page %q is auth-only", g.defaultRedirect)
	}
	if c := g.Classify(g.signInPage); c == Protected {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "sign-in page %q is protected", g.signInPage)
	}
	if g.Matches(g.signInPage) && g.Decide(g.signInPage, false).Action == Redirect {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "sign-in page %q redirects signed-out visitors", g.signInPage)
	}
	return g, nil
}

// Rules returns the ordered rule table.
func (g *Guard) Rules() []Rule {
	return slices.Clone(g.rules)
}

// Exclusions returns the path prefixes the guard never evaluates.
func (g *Guard) Exclusions() []string {
	return slices.Clone(g.exclusions)
}

// Matches reports whether path is subject to the guard at all. Paths whose
// first segment starts with an excluded prefix are skipped.
func (g *Guard) Matches(path string) bool {
	trimmed := strings.TrimPrefix(path, "/")
	for _, ex := range g.exclusions {
		if ex != "" && strings.HasPrefix(trimmed, ex) {
			return false
		}
	}
	return true
}

// Classify returns the class of the first rule that matches path.
func (g *Guard) Classify(path string) Classification {
	for _, r := range g.rules {
		if r.Match(path) {
			return r.Class
		}
	}
	return Protected
}

// Decide is a pure function of its inputs.
func (g *Guard) Decide(path string, hasSession bool) Decision {
	class := g.Classify(path)
	switch class {
	case APIAuthPrefix, Public:
		return Decision{Action: Allow, Class: class}
	case AuthOnly:
		if hasSession {
			return Decision{Action: Redirect, Class: class, Location: g.defaultRedirect}
		}
		return Decision{Action: Allow, Class: class}
	default:
		if !hasSession {
			return Decision{Action: Redirect, Class: class, Location: g.signInPage, Callback: true}
		}
		return Decision{Action: Allow, Class: class}
	}
}

// Describe renders the rule table, one rule per line.
func (g *Guard) Describe() string {
	var b strings.Builder
	for i, r := range g.rules {
		fmt.Fprintf(&b, "%d. %-10s %s\n", i+1, r.Class, r.Pattern)
	}
	if len(g.exclusions) > 0 {
		fmt.Fprintf(&b, "skipped prefixes: %s\n", strings.Join(g.exclusions, ", "))
	}
	return b.String()
}
