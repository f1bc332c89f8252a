package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/teacherprofile"
)

type approvalApi struct {
	deps *Deps
}

// registerApprovalAPI mounts the admission/application review queue. The
// whole prefix is admin-only at the gate.
func registerApprovalAPI(app *echo.Echo, deps *Deps) {
	api := approvalApi{deps: deps}

	g := app.Group("/api/approvals")
	g.GET("", api.queue)
	g.POST("/students/:id/approve", api.approveStudent)
	g.POST("/students/:id/reject", api.rejectStudent)
	g.POST("/teachers/:id/approve", api.approveTeacher)
	g.POST("/teachers/:id/reject", api.rejectTeacher)
}

// queue lists everything waiting for review.
func (api *approvalApi) queue(ctx echo.Context) error {
	students, err := api.deps.StudentSvc.Query(ctx.Request().Context(), student.QueryFilter{Status: student.StatusPending})
	if err != nil {
		return errors.Wrap(err, "querying pending admissions")
	}
	teachers, err := api.deps.TeacherSvc.Query(ctx.Request().Context(), teacherprofile.QueryFilter{Status: teacherprofile.StatusPending})
	if err != nil {
		return errors.Wrap(err, "querying pending applications")
	}
	if students == nil {
		students = []student.Student{}
	}
	if teachers == nil {
		teachers = []teacherprofile.Profile{}
	}
	return ctx.JSON(http.StatusOK, ApprovalQueue{Students: students, Teachers: teachers})
}

func (api *approvalApi) approveStudent(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return mapApprovalErr(err, student.ErrNotFound, student.ErrNotPending)
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *approvalApi) rejectStudent(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return mapApprovalErr(err, student.ErrNotFound, student.ErrNotPending)
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *approvalApi) approveTeacher(ctx echo.Context) error {
	prof, err := api.deps.TeacherSvc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return mapApprovalErr(err, teacherprofile.ErrNotFound, teacherprofile.ErrNotPending)
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *approvalApi) rejectTeacher(ctx echo.Context) error {
	prof, err := api.deps.TeacherSvc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return mapApprovalErr(err, teacherprofile.ErrNotFound, teacherprofile.ErrNotPending)
	}
	return ctx.JSON(http.StatusOK, prof)
}

func mapApprovalErr(err error, notFound, notPending error) error {
	switch errors.Cause(err) {
	case notFound:
		return errHTTPNotFound
	case notPending:
		return core.NewValidationError(err, core.FieldError{Field: "status", Error: notPending.Error()})
	}
	return errors.Wrap(err, "reviewing approval")
}

type ApprovalQueue struct {
	Students []student.Student        `json:"students"`
	Teachers []teacherprofile.Profile `json:"teachers"`
}
