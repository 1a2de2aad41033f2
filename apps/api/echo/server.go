package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/roster"
	"github.com/trezcool/coursehub/core/submission"
	"github.com/trezcool/coursehub/core/token"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/services/filestore"
)

type (
	// Deps are the services the API handlers are built on.
	Deps struct {
		Validate    *validator.Validate
		Translator  ut.Translator
		Tokens      *token.Service
		Users       *user.Service
		Courses     *course.Service
		Enrollments *enrollment.Service
		Assignments *assignment.Service
		Submissions *submission.Service
		Rosters     *roster.Exporter
		Files       filestore.Storage
	}

	Server struct {
		address  string
		app      *echo.Echo
		logger   core.Logger
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *Deps) *Server {
	s := &Server{
		address:  conf.Server.Address,
		app:      echo.New(),
		logger:   logger,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(conf, deps)
	return s
}

func (s *Server) setup(conf *core.Config, deps *Deps) {
	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", home)

	auth := authMiddleware(deps.Tokens)
	registerUserAPI(s.app, auth, deps)
	registerCourseAPI(s.app, auth, deps)
	registerAssignmentAPI(s.app, auth, deps)
	registerMediaAPI(s.app, deps.Files)
}

// Start blocks until the server fails or is shut down; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Coursehub API!")
}
