package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/teacherprofile"
	"github.com/shikshahq/shiksha/core/user"
)

type authApi struct {
	codec *TokenCodec
	deps  *Deps
}

func registerAuthAPI(app *echo.Echo, codec *TokenCodec, deps *Deps) {
	api := authApi{codec: codec, deps: deps}

	g := app.Group("/api/auth")
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.POST("/signup", api.signup)
	g.POST("/password-reset", api.resetPassword)
	g.POST("/password-reset-confirm", api.confirmPasswordReset)
	g.GET("/me", api.me)

	app.GET("/api/profile", api.profile)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if !api.deps.RateLimiter.Allow(ctx.Request().Context(), "login:"+ctx.RealIP()) {
		return errTooManyRequests
	}

	usr, name, err := authenticate(ctx, data, api.deps)
	if err != nil {
		return err
	}

	token, _, err := api.codec.Issue(usr, name)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	setAuthCookie(ctx, token, api.deps.Conf.SessionExpirationDelta, api.secureCookies())

	return ctx.JSON(http.StatusOK, LoginResponse{
		User: UserInfo{ID: usr.ID, Email: usr.Email, Role: usr.Role, Name: name},
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	clearAuthCookie(ctx, api.secureCookies())
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out."})
}

func (api *authApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UserInfo{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
		Name:  claims.Name,
	})
}

// signup registers a student admission. The credential stays inactive until
// an admin approves the admission; login is rejected until then.
func (api *authApi) signup(ctx echo.Context) error {
	var data SignupRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignupRequest")
	}
	if err := data.Validate(api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Create(ctx.Request().Context(), data.newUser(), false /* active */)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "a user with this email already exists"})
		}
		return errors.Wrap(err, "creating credential")
	}

	if _, err = api.deps.StudentSvc.Admit(ctx.Request().Context(), usr.ID, data.newStudent()); err != nil {
		return errors.Wrap(err, "recording admission")
	}

	return ctx.JSON(http.StatusCreated, SuccessResponse{
		Success: "Admission submitted. You will be able to log in once it is approved.",
	})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if !api.deps.RateLimiter.Allow(ctx.Request().Context(), "pwdreset:"+ctx.RealIP()) {
		return errTooManyRequests
	}

	if err := api.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		api.deps.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

// profile returns the role-specific profile of the current user.
func (api *authApi) profile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	switch claims.Role {
	case user.RoleStudent:
		std, err := api.deps.StudentSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Cause(err) == student.ErrNotFound {
				return errHTTPNotFound
			}
			return errors.Wrap(err, "finding student profile")
		}
		return ctx.JSON(http.StatusOK, std)
	case user.RoleTeacher:
		prof, err := api.deps.TeacherSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Cause(err) == teacherprofile.ErrNotFound {
				return errHTTPNotFound
			}
			return errors.Wrap(err, "finding teacher profile")
		}
		return ctx.JSON(http.StatusOK, prof)
	}

	usr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) secureCookies() bool {
	return !(api.deps.Conf.Debug || api.deps.Conf.TestMode)
}

type userApi struct {
	deps *Deps
}

// registerUserAPI mounts credential management. The whole prefix is
// admin-only at the gate.
func registerUserAPI(app *echo.Echo, deps *Deps) {
	api := userApi{deps: deps}

	g := app.Group("/api/users")
	g.GET("", api.query)
	g.POST("", api.create)
	g.DELETE("", api.destroyMultiple)
	g.GET("/roles", api.queryRoles)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Create(ctx.Request().Context(), data, true /* active */)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	users, err := api.deps.UserSvc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(usr, api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err = api.deps.UserSvc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	// Say No to Suicide! ctxUser cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if ctx.Param("id") == claims.Subject {
		return errHTTPForbidden
	}

	if err := api.deps.UserSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, claims.Subject); i < len(query.IDs) && query.IDs[i] == claims.Subject {
		return errHTTPForbidden
	}

	if err := api.deps.UserSvc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	UserInfo struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
		Name  string `json:"name"`
	}

	LoginResponse struct {
		User UserInfo `json:"user"`
	}

	SignupRequest struct {
		Name            string `json:"name" validate:"required,min=2"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required"`
		PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
		GuardianName    string `json:"guardian_name" validate:"required"`
		Phone           string `json:"phone" validate:"required,min=7"`
		Grade           string `json:"grade" validate:"required"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (sr *SignupRequest) Validate(validate *validator.Validate, svc *user.Service) error {
	sr.Name = core.CleanString(sr.Name)
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.GuardianName = core.CleanString(sr.GuardianName)
	sr.Phone = core.CleanString(sr.Phone)
	sr.Grade = core.CleanString(sr.Grade)

	if err := validate.Struct(sr); err != nil {
		return err
	}
	nu := sr.newUser()
	return nu.Validate(validate, svc)
}

func (sr *SignupRequest) newUser() user.NewUser {
	return user.NewUser{
		Name:            sr.Name,
		Email:           sr.Email,
		Password:        sr.Password,
		PasswordConfirm: sr.PasswordConfirm,
		Role:            user.RoleStudent,
	}
}

func (sr *SignupRequest) newStudent() student.NewStudent {
	return student.NewStudent{
		Name:         sr.Name,
		GuardianName: sr.GuardianName,
		Phone:        sr.Phone,
		Grade:        sr.Grade,
	}
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
