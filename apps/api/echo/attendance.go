package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/attendance"
	"github.com/shikshahq/shiksha/core/student"
)

type attendanceApi struct {
	deps *Deps
}

// registerAttendanceAPI mounts session marking for staff and the /self view
// for students. The gate keeps students off everything but GET /self.
func registerAttendanceAPI(app *echo.Echo, deps *Deps) {
	api := attendanceApi{deps: deps}

	g := app.Group("/api/attendance")
	g.POST("", api.markSession)
	g.GET("", api.sessionSheet)
	g.GET("/self", api.self)
}

func (api *attendanceApi) markSession(ctx echo.Context) error {
	var data attendance.MarkSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkSession")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	recs, err := api.deps.AttendanceSvc.MarkSession(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking session")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) sessionSheet(ctx echo.Context) error {
	var query SessionSheetRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SessionSheetRequest")
	}
	if err := api.deps.Validate.Struct(&query); err != nil {
		return err
	}

	recs, err := api.deps.AttendanceSvc.SessionSheet(ctx.Request().Context(), query.BatchID, query.Date)
	if err != nil {
		return errors.Wrap(err, "querying session sheet")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

// self returns the current student's own records, optionally bounded.
func (api *attendanceApi) self(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding student profile")
	}

	var query HistoryRequest
	if err = ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to HistoryRequest")
	}
	from, to, err := query.Bounds()
	if err != nil {
		return err
	}

	recs, err := api.deps.AttendanceSvc.StudentHistory(ctx.Request().Context(), st.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

type (
	SessionSheetRequest struct {
		BatchID string `query:"batch_id" validate:"required"`
		Date    string `query:"date" validate:"required,datetime=2006-01-02"`
	}

	HistoryRequest struct {
		From string `query:"from"`
		To   string `query:"to"`
	}
)

// Bounds parses the optional range; zero times mean unbounded.
func (hr *HistoryRequest) Bounds() (from, to time.Time, err error) {
	if hr.From != "" {
		if from, err = time.ParseInLocation("2006-01-02", hr.From, time.UTC); err != nil {
			return from, to, core.NewValidationError(err, core.FieldError{Field: "from", Error: "invalid date"})
		}
	}
	if hr.To != "" {
		if to, err = time.ParseInLocation("2006-01-02", hr.To, time.UTC); err != nil {
			return from, to, core.NewValidationError(err, core.FieldError{Field: "to", Error: "invalid date"})
		}
	}
	return from, to, nil
}
