package policy

import (
	"testing"

	"github.com/shikshahq/shiksha/core/user"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name string
		role string
		path string
		want bool
	}{
		// admin wildcard
		{"admin dashboard", user.RoleAdmin, "/dashboard", true},
		{"admin fees", user.RoleAdmin, "/fees", true},
		{"admin anything", user.RoleAdmin, "/whatever/deep/path", true},

		// exact match
		{"teacher students", user.RoleTeacher, "/students", true},
		{"student dashboard", user.RoleStudent, "/dashboard", true},

		// descendant match
		{"teacher student detail", user.RoleTeacher, "/students/42", true},
		{"student own fees api", user.RoleStudent, "/api/my-fees/june", true},

		// no plain prefix leak
		{"teacher studentsx", user.RoleTeacher, "/studentsx", false},
		{"student dashboardx", user.RoleStudent, "/dashboardx", false},

		// out of scope
		{"teacher fees", user.RoleTeacher, "/fees", false},
		{"teacher settings", user.RoleTeacher, "/settings", false},
		{"student students", user.RoleStudent, "/students", false},
		{"student fee api", user.RoleStudent, "/api/fees", false},

		// unknown role gets nothing
		{"unknown role", "superuser", "/dashboard", false},
		{"empty role", "", "/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.role, tt.path); got != tt.want {
				t.Errorf("CanAccess(%q, %q) = %v; want %v", tt.role, tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchesPrefix(t *testing.T) {
	tests := []struct {
		path  string
		route string
		want  bool
	}{
		{"/students", "/students", true},
		{"/students/42", "/students", true},
		{"/students/42/batches", "/students", true},
		{"/studentsx", "/students", false},
		{"/student", "/students", false},
		{"/", "/students", false},
	}
	for _, tt := range tests {
		if got := MatchesPrefix(tt.path, tt.route); got != tt.want {
			t.Errorf("MatchesPrefix(%q, %q) = %v; want %v", tt.path, tt.route, got, tt.want)
		}
	}
}

func TestRoutes(t *testing.T) {
	if Routes(user.RoleAdmin) != nil {
		t.Error("Routes(admin) should be nil, admin is a wildcard")
	}
	routes := Routes(user.RoleTeacher)
	if len(routes) == 0 {
		t.Fatal("Routes(teacher) is empty")
	}
	// returned slice is a copy
	routes[0] = "/hacked"
	if Routes(user.RoleTeacher)[0] == "/hacked" {
		t.Error("Routes() must not expose the underlying table")
	}
}
