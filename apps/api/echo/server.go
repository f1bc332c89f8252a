package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/attendance"
	"github.com/shikshahq/shiksha/core/batch"
	"github.com/shikshahq/shiksha/core/fee"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/teacherprofile"
	"github.com/shikshahq/shiksha/core/user"
	ratelimitsvc "github.com/shikshahq/shiksha/services/ratelimit"
)

// translator renders validation errors; set once by NewServer.
var translator ut.Translator

type (
	Deps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       *user.Service
		StudentSvc    *student.Service
		TeacherSvc    *teacherprofile.Service
		BatchSvc      *batch.Service
		AttendanceSvc *attendance.Service
		FeeSvc        *fee.Service
		RateLimiter   *ratelimitsvc.Limiter
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps  *Deps
		app   *echo.Echo
		errCh chan error
		sigCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps *Deps) Server {
	s := &server{
		deps:  deps,
		app:   echo.New(),
		errCh: make(chan error, 1),
		sigCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.sigCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	translator = s.deps.Translator

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, func() {
		s.sigCh <- syscall.SIGTERM
	})
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	codec := NewTokenCodec(conf)
	gate := newAccessGate(codec)
	s.app.Use(gate.Middleware)

	registerPages(s.app)
	registerAuthAPI(s.app, codec, s.deps)
	registerUserAPI(s.app, s.deps)
	registerStudentAPI(s.app, s.deps)
	registerTeacherAPI(s.app, s.deps)
	registerApprovalAPI(s.app, s.deps)
	registerBatchAPI(s.app, s.deps)
	registerAttendanceAPI(s.app, s.deps)
	registerFeeAPI(s.app, s.deps)
	registerSettingsAPI(s.app, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.ServerAddress()); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.sigCh
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// adminMiddleware guards mutating endpoints that the route policy leaves open
// to staff reads.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.Role != user.RoleAdmin {
				return errHTTPForbidden
			}
			return next(ctx)
		}
	}
}
