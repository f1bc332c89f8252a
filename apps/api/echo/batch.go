package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/batch"
	"github.com/shikshahq/shiksha/core/student"
)

type batchApi struct {
	deps *Deps
}

// registerBatchAPI mounts batch management for staff, plus the student-facing
// /api/my-batches view.
func registerBatchAPI(app *echo.Echo, deps *Deps) {
	api := batchApi{deps: deps}

	g := app.Group("/api/batches")
	g.GET("", api.query)
	g.POST("", api.create, adminMiddleware())
	g.GET("/:id", api.retrieve)
	g.POST("/:id/students", api.enroll, adminMiddleware())
	g.DELETE("/:id/students/:studentID", api.withdraw, adminMiddleware())
	g.DELETE("/:id", api.destroy, adminMiddleware())

	app.GET("/api/my-batches", api.myBatches)
}

func (api *batchApi) query(ctx echo.Context) error {
	filter := new(batch.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []batch.Batch{})
	}
	filter.Clean()

	batches, err := api.deps.BatchSvc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []batch.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *batchApi) create(ctx echo.Context) error {
	var data batch.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	b, err := api.deps.BatchSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating batch")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *batchApi) retrieve(ctx echo.Context) error {
	b, err := api.deps.BatchSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return mapBatchErr(err)
	}
	ids, err := api.deps.BatchSvc.EnrolledStudentIDs(ctx.Request().Context(), b.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrolled students")
	}
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, BatchDetail{Batch: b, StudentIDs: ids})
}

func (api *batchApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	if err := api.deps.BatchSvc.Enroll(ctx.Request().Context(), ctx.Param("id"), data.StudentID); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Student enrolled."})
}

func (api *batchApi) withdraw(ctx echo.Context) error {
	if err := api.deps.BatchSvc.Withdraw(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentID")); err != nil {
		return mapBatchErr(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *batchApi) destroy(ctx echo.Context) error {
	if err := api.deps.BatchSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// myBatches lists the batches the current student is enrolled in.
func (api *batchApi) myBatches(ctx echo.Context) error {
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

	batches, err := api.deps.BatchSvc.QueryByStudent(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "querying student batches")
	}
	if batches == nil {
		batches = []batch.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func mapBatchErr(err error) error {
	switch errors.Cause(err) {
	case batch.ErrNotFound:
		return errHTTPNotFound
	case batch.ErrBatchFull:
		return core.NewValidationError(err, core.FieldError{Field: "batch_id", Error: batch.ErrBatchFull.Error()})
	case batch.ErrAlreadyEnrolled:
		return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: batch.ErrAlreadyEnrolled.Error()})
	}
	return errors.Wrap(err, "batch operation")
}

type (
	BatchDetail struct {
		batch.Batch
		StudentIDs []string `json:"student_ids"`
	}

	EnrollRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}
)
