// Package routeguard decides, for every page request, whether the visitor may
// proceed or must be redirected, based only on the path and whether a valid
// session is present.
package routeguard

import (
	"fmt"
	"strings"
)

// Classification is the access class of a path.
type Classification int

const (
	// Protected paths need a session.
	Protected Classification = iota
	// Public paths are open to everyone.
	Public
	// AuthOnly paths are for signed-out visitors; signed-in visitors are
	// sent to the post-login page.
	AuthOnly
	// APIAuthPrefix paths belong to the auth API and are never redirected.
	APIAuthPrefix
)

func (c Classification) String() string {
	switch c {
	case Protected:
		return "protected"
	case Public:
		return "public"
	case AuthOnly:
		return "auth-only"
	case APIAuthPrefix:
		return "api-auth"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Rule assigns Class to every path Match accepts.
type Rule struct {
	Class   Classification
	Pattern string // human readable form of Match
	Match   func(path string) bool
}

func prefixRule(class Classification, prefix string) Rule {
	return Rule{
		Class:   class,
		Pattern: prefix + "*",
		Match: func(path string) bool {
			return strings.HasPrefix(path, prefix)
		},
	}
}

func exactRule(class Classification, paths []string) Rule {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return Rule{
		Class:   class,
		Pattern: strings.Join(paths, ", "),
		Match: func(path string) bool {
			_, ok := set[path]
			return ok
		},
	}
}

func catchAllRule(class Classification) Rule {
	return Rule{
		Class:   class,
		Pattern: "*",
		Match:   func(string) bool { return true },
	}
}
