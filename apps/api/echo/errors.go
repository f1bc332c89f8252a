package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core"
)

var (
	errUnauthenticated    = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHTTPForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHTTPNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests    = echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, retry later")
)

// newAppHTTPErrorHandler returns an echo error handler that knows how to
// render validation failures as field->message maps and plain failures as
// {"message": ...} objects. Unexpected errors are logged and, if they carry
// integrity issues, trigger a graceful shutdown.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var (
			code = http.StatusInternalServerError
			body interface{}
		)

		switch e := errors.Cause(err).(type) {
		case *echo.HTTPError:
			code = e.Code
			body = e.Message
			if e.Internal != nil {
				logger.Error("http error", errors.Wrap(e.Internal, "internal"))
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			fields := make(map[string]string, len(e))
			for _, fe := range e {
				fields[fe.Field()] = fe.Translate(translator)
			}
			body = fields
		case *core.ValidationError:
			code = http.StatusBadRequest
			fields := make(map[string]string, len(e.Fields))
			for _, fe := range e.Fields {
				fields[fe.Field] = fe.Error
			}
			body = fields
		default:
			logger.Error("unexpected error", err)
			body = http.StatusText(code)
			if core.IsShutdown(err) {
				defer signalShutdown()
			}
		}

		if msg, ok := body.(string); ok {
			body = echo.Map{"message": msg}
		}

		var respErr error
		if ctx.Request().Method == http.MethodHead {
			respErr = ctx.NoContent(code)
		} else {
			respErr = ctx.JSON(code, body)
		}
		if respErr != nil {
			logger.Error("writing error response", respErr)
		}
	}
}
