package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/teacherprofile"
	"github.com/shikshahq/shiksha/core/user"
)

type teacherApi struct {
	deps *Deps
}

// registerTeacherAPI mounts the staff roster. The whole prefix is admin-only
// at the gate.
func registerTeacherAPI(app *echo.Echo, deps *Deps) {
	api := teacherApi{deps: deps}

	g := app.Group("/api/teachers")
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.DELETE("/:id", api.destroy)
}

func (api *teacherApi) query(ctx echo.Context) error {
	filter := new(teacherprofile.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []teacherprofile.Profile{})
	}
	filter.Clean()

	profs, err := api.deps.TeacherSvc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying teacher profiles")
	}
	if profs == nil {
		profs = []teacherprofile.Profile{}
	}
	return ctx.JSON(http.StatusOK, profs)
}

// create provisions a staff member in one step: an active credential plus an
// approved profile. Admin-vouched staff skip the application flow.
func (api *teacherApi) create(ctx echo.Context) error {
	var data NewTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacherRequest")
	}
	if err := data.Validate(api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Create(ctx.Request().Context(), data.newUser(), true /* active */)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "a user with this email already exists"})
		}
		return errors.Wrap(err, "creating credential")
	}

	prof, err := api.deps.TeacherSvc.Apply(ctx.Request().Context(), usr.ID, data.newProfile())
	if err != nil {
		return errors.Wrap(err, "creating teacher profile")
	}
	prof, err = api.deps.TeacherSvc.Approve(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "approving teacher profile")
	}
	return ctx.JSON(http.StatusCreated, prof)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	prof, err := api.deps.TeacherSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == teacherprofile.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding teacher profile by ID")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.deps.TeacherSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher profile")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type NewTeacherRequest struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Phone           string   `json:"phone" validate:"required,min=7"`
	Subjects        []string `json:"subjects" validate:"required,min=1,dive,required"`
	Qualifications  string   `json:"qualifications"`
}

func (nt *NewTeacherRequest) Validate(validate *validator.Validate, svc *user.Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanString(nt.Phone)
	for i, s := range nt.Subjects {
		nt.Subjects[i] = core.CleanString(s)
	}
	nt.Qualifications = core.CleanString(nt.Qualifications)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	nu := nt.newUser()
	return nu.Validate(validate, svc)
}

func (nt *NewTeacherRequest) newUser() user.NewUser {
	return user.NewUser{
		Name:            nt.Name,
		Email:           nt.Email,
		Password:        nt.Password,
		PasswordConfirm: nt.PasswordConfirm,
		Role:            user.RoleTeacher,
	}
}

func (nt *NewTeacherRequest) newProfile() teacherprofile.NewProfile {
	return teacherprofile.NewProfile{
		Name:           nt.Name,
		Phone:          nt.Phone,
		Subjects:       nt.Subjects,
		Qualifications: nt.Qualifications,
	}
}
