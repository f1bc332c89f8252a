package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/user"
)

const (
	// AuthCookieName is the session cookie holding the signed token.
	AuthCookieName = "auth_token"

	// Identity headers forwarded to downstream handlers once the gate has
	// verified the session, so they never re-decode the token.
	HeaderUserID    = "x-user-id"
	HeaderUserRole  = "x-user-role"
	HeaderUserEmail = "x-user-email"

	ctxClaimsKey = "claims"
	ctxUserKey   = "user"
)

// Claims is the identity payload carried inside a session token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session tokens with the process secret.
// It is a pure encode/decode pair; no I/O, no shared mutable state.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time // mockable
}

func NewTokenCodec(conf *core.Config) *TokenCodec {
	return &TokenCodec{
		secret: []byte(conf.SecretKey),
		ttl:    conf.SessionExpirationDelta,
		issuer: conf.AppName,
		now:    time.Now,
	}
}

// Issue mints a signed token for usr, valid for the codec's validity window.
func (c *TokenCodec) Issue(usr user.User, name string) (string, *Claims, error) {
	now := c.now()
	claims := &Claims{
		Email: usr.Email,
		Role:  usr.Role,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   usr.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(c.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "signing token")
	}
	return ss, claims, nil
}

// Verify decodes a token string and returns its claims, or nil on any
// failure: missing, malformed, tampered or expired. It never returns an
// error; callers must treat nil as "no session", nothing else.
func (c *TokenCodec) Verify(tokenStr string) *Claims {
	if tokenStr == "" {
		return nil
	}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// authenticate verifies credentials and resolves the display name from the
// role-specific profile, falling back to the credential record's name.
func authenticate(ctx echo.Context, data LoginRequest, deps *Deps) (user.User, string, error) {
	usr, err := deps.UserSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return user.User{}, "", errInvalidCredentials
		case user.ErrAccountDeactivated:
			return user.User{}, "", errAccountDeactivated
		}
		return user.User{}, "", errors.Wrap(err, "authenticating")
	}

	name := usr.Name
	switch usr.Role {
	case user.RoleStudent:
		if n, err := deps.StudentSvc.DisplayName(ctx.Request().Context(), usr.ID); err == nil && n != "" {
			name = n
		}
	case user.RoleTeacher:
		if n, err := deps.TeacherSvc.DisplayName(ctx.Request().Context(), usr.ID); err == nil && n != "" {
			name = n
		}
	}
	return usr, name, nil
}

func setAuthCookie(ctx echo.Context, token string, ttl time.Duration, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookie expires the session cookie. Idempotent: clearing an absent
// cookie is fine.
func clearAuthCookie(ctx echo.Context, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func readAuthCookie(ctx echo.Context) string {
	ck, err := ctx.Cookie(AuthCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(ctxClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthenticated
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(ctxUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(ctxUserKey, usr)
	return usr, nil
}
