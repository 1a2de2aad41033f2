package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/user"
)

// Password satisfies the password policy of every user created here.
const Password = "c0rrect-h0rse"

// NewConfig returns a test configuration storing media under a temporary dir.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Coursehub",
		SecretKey: "test-secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
		Storage:   core.StorageConfig{Backend: "local", MediaDir: t.TempDir()},
	}
}

// NewValidator returns a validator with every custom validator & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, email string, role user.Role) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title, subject, number, term string, instructorID int) course.Course {
	t.Helper()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Title:        title,
		Subject:      subject,
		Number:       number,
		Term:         term,
		InstructorID: instructorID,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateAssignment(t *testing.T, repo assignment.Repository, courseID int, title string, points int, due time.Time) assignment.Assignment {
	t.Helper()
	a, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		CourseID: courseID,
		Title:    title,
		Points:   points,
		DueDate:  due.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

func Enroll(t *testing.T, repo enrollment.Repository, courseID int, studentIDs ...int) {
	t.Helper()
	for _, id := range studentIDs {
		if _, err := repo.MutateEnrollment(context.Background(), courseID, id, enrollment.Enroll, time.Now().UTC()); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
}
