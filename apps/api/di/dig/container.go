package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/coursehub/apps/api/echo"
	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/roster"
	"github.com/trezcool/coursehub/core/submission"
	"github.com/trezcool/coursehub/core/token"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/services/filestore"
	logsvc "github.com/trezcool/coursehub/services/logger"
	"github.com/trezcool/coursehub/storage/database"
	sqlxrepos "github.com/trezcool/coursehub/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DepsParam gathers everything the API handlers need.
type DepsParam struct {
	dig.In
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

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, logsvc.PrefixAPI, log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, logsvc.PrefixDB, log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout*6)
		defer cancel()

		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newFileStorage(conf *core.Config, logger core.Logger) filestore.Storage {
	files, err := filestore.New(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}
	return files
}

func newCourseService(repo course.Repository, users *user.Service) *course.Service {
	return course.NewService(repo, users)
}

func newEnrollmentService(repo enrollment.Repository, users *user.Service) *enrollment.Service {
	return enrollment.NewService(repo, users)
}

func newRosterExporter(courses *course.Service, enrollments *enrollment.Service) *roster.Exporter {
	return roster.NewExporter(courses, enrollments)
}

func newDeps(p DepsParam) *echoapi.Deps {
	return &echoapi.Deps{
		Validate:    p.Validate,
		Translator:  p.Translator,
		Tokens:      p.Tokens,
		Users:       p.Users,
		Courses:     p.Courses,
		Enrollments: p.Enrollments,
		Assignments: p.Assignments,
		Submissions: p.Submissions,
		Rosters:     p.Rosters,
		Files:       p.Files,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newFileStorage))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewCourseRepository, dig.As(new(course.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(sqlxrepos.NewAssignmentRepository, dig.As(new(assignment.Repository))))
	must(c.Provide(sqlxrepos.NewSubmissionRepository, dig.As(new(submission.Repository))))

	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	// services
	must(c.Provide(token.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(newEnrollmentService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(submission.NewService))
	must(c.Provide(newRosterExporter))

	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
