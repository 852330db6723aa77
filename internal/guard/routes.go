package guard

import "strings"

// Kind classifies a view for the guard.
type Kind int

const (
	// Public views render for everyone.
	Public Kind = iota
	// Protected views require an authenticated session.
	Protected
	// AuthOnly views are only meaningful while logged out, like the login form.
	AuthOnly
)

func (k Kind) String() string {
	switch k {
	case Protected:
		return "protected"
	case AuthOnly:
		return "auth-only"
	default:
		return "public"
	}
}

// Redirect targets.
const (
	LoginPath = "/login"
	HomePath  = "/dashboard"
)

// Routes maps view paths to their Kind by prefix.
type Routes struct {
	protected []string
	authOnly  []string
}

// DefaultRoutes returns the console's view classification.
func DefaultRoutes() *Routes {
	return NewRoutes(
		[]string{"/dashboard", "/documents", "/chat", "/profile"},
		[]string{LoginPath, "/register"},
	)
}

// NewRoutes returns Routes for the given path prefixes.
func NewRoutes(protected, authOnly []string) *Routes {
	return &Routes{protected: protected, authOnly: authOnly}
}

// Classify returns the Kind of path. Prefixes match whole segments only,
// "/chat/1" is protected by "/chat", "/chatter" is not.
func (r *Routes) Classify(path string) Kind {
	switch {
	case matchAny(r.protected, path):
		return Protected
	case matchAny(r.authOnly, path):
		return AuthOnly
	default:
		return Public
	}
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}
