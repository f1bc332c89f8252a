package echoapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shikshahq/shiksha/core/policy"
	"github.com/shikshahq/shiksha/core/user"
)

const (
	loginPath          = "/auth/login"
	defaultLandingPath = "/dashboard"
)

var (
	staticPathPrefixes = []string{"/static/", "/assets/", "/debug/"}
	staticPaths        = map[string]bool{
		"/favicon.ico": true,
		"/robots.txt":  true,
	}

	// publicPaths require no session at all.
	publicPaths = map[string]bool{
		"/":                                true,
		"/auth/login":                      true,
		"/auth/signup":                     true,
		"/api/auth/login":                  true,
		"/api/auth/signup":                 true,
		"/api/auth/logout":                 true,
		"/api/auth/password-reset":         true,
		"/api/auth/password-reset-confirm": true,
	}
	publicPathPrefixes = []string{"/auth/password-reset"}

	// authEntryPaths are public pages a logged-in visitor has no business on;
	// they get bounced to the dashboard instead.
	authEntryPaths = map[string]bool{
		"/auth/login":  true,
		"/auth/signup": true,
	}

	// adminOnlyAPIPrefixes are denied to every non-admin role no matter what
	// the coarse route policy says.
	adminOnlyAPIPrefixes = []string{
		"/api/fees",
		"/api/settings",
		"/api/approvals",
		"/api/teachers",
		"/api/users",
	}
)

// accessGate is the single authorization choke point. Every request passes
// through it before any handler runs; handlers behind it can assume a valid
// session and a permitted role.
type accessGate struct {
	codec *TokenCodec
}

func newAccessGate(codec *TokenCodec) accessGate {
	return accessGate{codec: codec}
}

func (g accessGate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		path := req.URL.Path

		if isStaticPath(path) {
			return next(ctx)
		}

		claims := g.codec.Verify(readAuthCookie(ctx))

		if isPublicPath(path) {
			if claims != nil && authEntryPaths[path] {
				return ctx.Redirect(http.StatusFound, defaultLandingPath)
			}
			return next(ctx)
		}

		isAPI := strings.HasPrefix(path, "/api/")

		if claims == nil {
			if isAPI {
				return errUnauthenticated
			}
			return ctx.Redirect(http.StatusFound, loginPath+"?callbackUrl="+url.QueryEscape(path))
		}

		if !g.allowed(claims.Role, path, req.Method) {
			if isAPI {
				return errHTTPForbidden
			}
			return ctx.Redirect(http.StatusFound, defaultLandingPath+"?error=unauthorized")
		}

		ctx.Set(ctxClaimsKey, *claims)
		req.Header.Set(HeaderUserID, claims.Subject)
		req.Header.Set(HeaderUserRole, claims.Role)
		req.Header.Set(HeaderUserEmail, claims.Email)
		return next(ctx)
	}
}

// allowed decides whether role may reach path. Admin checks come before the
// coarse route policy so a broad policy entry can never reopen a restricted
// API prefix.
func (g accessGate) allowed(role, path, method string) bool {
	if role == user.RoleAdmin {
		return true
	}
	for _, prefix := range adminOnlyAPIPrefixes {
		if policy.MatchesPrefix(path, prefix) {
			return false
		}
	}
	if role == user.RoleStudent && policy.MatchesPrefix(path, "/api/attendance") {
		// students may only read their own records
		return path == "/api/attendance/self" && method == http.MethodGet
	}
	return policy.CanAccess(role, path)
}

func isStaticPath(path string) bool {
	if staticPaths[path] {
		return true
	}
	for _, prefix := range staticPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPathPrefixes {
		if policy.MatchesPrefix(path, prefix) {
			return true
		}
	}
	return false
}
