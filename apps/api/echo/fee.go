package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/fee"
	"github.com/shikshahq/shiksha/core/student"
)

type feeApi struct {
	deps *Deps
}

// registerFeeAPI mounts the fee ledger. /api/fees is admin-only at the gate;
// /api/my-fees is the student's own view.
func registerFeeAPI(app *echo.Echo, deps *Deps) {
	api := feeApi{deps: deps}

	g := app.Group("/api/fees")
	g.GET("", api.query)
	g.POST("", api.assess)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/payments", api.recordPayment)

	app.GET("/api/my-fees", api.myFees)
}

func (api *feeApi) query(ctx echo.Context) error {
	filter := new(fee.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []fee.Fee{})
	}
	filter.Clean()

	fees, err := api.deps.FeeSvc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *feeApi) assess(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	f, err := api.deps.FeeSvc.Assess(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == fee.ErrDuplicate {
			return core.NewValidationError(err, core.FieldError{Field: "month", Error: fee.ErrDuplicate.Error()})
		}
		return errors.Wrap(err, "assessing fee")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	f, err := api.deps.FeeSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == fee.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding fee by ID")
	}
	payments, err := api.deps.FeeSvc.Payments(ctx.Request().Context(), f.ID)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []fee.Payment{}
	}
	return ctx.JSON(http.StatusOK, FeeDetail{Fee: f, Payments: payments})
}

func (api *feeApi) recordPayment(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	f, err := api.deps.FeeSvc.RecordPayment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		switch errors.Cause(err) {
		case fee.ErrNotFound:
			return errHTTPNotFound
		case fee.ErrOverpayment:
			return core.NewValidationError(err, core.FieldError{Field: "amount", Error: fee.ErrOverpayment.Error()})
		}
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusOK, f)
}

// myFees lists the current student's own ledger.
func (api *feeApi) myFees(ctx echo.Context) error {
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

	fees, err := api.deps.FeeSvc.Query(ctx.Request().Context(), fee.QueryFilter{StudentID: st.ID})
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

type FeeDetail struct {
	fee.Fee
	Payments []fee.Payment `json:"payments"`
}
