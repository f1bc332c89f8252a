// Package policy holds the static role-route table: which path prefixes each
// role may reach. It is pure configuration-as-data; the access gate consults
// it on every request but it performs no I/O itself.
package policy

import (
	"strings"

	"github.com/shikshahq/shiksha/core/user"
)

// roleRoutes maps a role to the path prefixes it may access. Admin is absent
// on purpose: it is allowed everywhere unconditionally.
var roleRoutes = map[string][]string{
	user.RoleTeacher: {
		"/dashboard",
		"/profile",
		"/students",
		"/batches",
		"/attendance",
		"/api/auth",
		"/api/profile",
		"/api/students",
		"/api/batches",
		"/api/attendance",
	},
	user.RoleStudent: {
		"/dashboard",
		"/profile",
		"/my-batches",
		"/my-attendance",
		"/my-fees",
		"/api/auth",
		"/api/profile",
		"/api/my-batches",
		"/api/my-fees",
		"/api/attendance",
	},
}

// CanAccess reports whether role may reach path. Admin always may. For other
// roles the path must equal a configured route or be a `/`-descendant of one;
// plain prefix matching would let /studentsx through on a /students entry.
func CanAccess(role, path string) bool {
	if role == user.RoleAdmin {
		return true
	}
	routes, ok := roleRoutes[role]
	if !ok {
		return false
	}
	for _, route := range routes {
		if MatchesPrefix(path, route) {
			return true
		}
	}
	return false
}

// MatchesPrefix reports whether path equals route or descends from it across
// a path separator.
func MatchesPrefix(path, route string) bool {
	if path == route {
		return true
	}
	return strings.HasPrefix(path, route+"/")
}

// Routes returns the configured route prefixes for a role; nil for admin
// (wildcard) and unknown roles.
func Routes(role string) []string {
	routes, ok := roleRoutes[role]
	if !ok {
		return nil
	}
	out := make([]string, len(routes))
	copy(out, routes)
	return out
}
