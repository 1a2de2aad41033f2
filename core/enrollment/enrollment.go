package enrollment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
)

// Action is a mutation of a student's enrollment in a course.
type Action int

// Action values are the ones accepted on the wire (POST /courses/:id/students/:action).
const (
	Unenroll Action = iota
	Update
	Enroll
)

var actionNames = map[Action]string{
	Unenroll: "unenroll",
	Update:   "update",
	Enroll:   "enroll",
}

func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "action(" + strconv.Itoa(int(a)) + ")"
}

// ParseAction accepts an action name or its numeric code.
func ParseAction(s string) (Action, bool) {
	s = core.CleanString(s, true /* lower */)
	for action, name := range actionNames {
		if s == name || s == strconv.Itoa(int(action)) {
			return action, true
		}
	}
	return 0, false
}

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("enrollment")
	ErrNotStudent = errors.New("must reference a student")
)

type Enrollment struct {
	CourseID   int       `json:"courseId" db:"course_id"`
	StudentID  int       `json:"studentId" db:"student_id"`
	EnrolledAt time.Time `json:"enrolledAt" db:"enrolled_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Student is a roster line: an enrolled User's public info.
type Student struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type (
	Repository interface {
		ListStudentIDs(ctx context.Context, courseID int) ([]int, error)
		// ListStudents joins the course's enrollments with their Users, ordered by ID.
		ListStudents(ctx context.Context, courseID int) ([]Student, error)
		ListCourseIDsByStudent(ctx context.Context, studentID int) ([]int, error)
		// MutateEnrollment reports whether an enrollment was affected:
		// Enroll is idempotent; Update & Unenroll report false when the student is not enrolled.
		MutateEnrollment(ctx context.Context, courseID, studentID int, action Action, at time.Time) (bool, error)
	}

	// UserGetter is the part of user.Service needed to check students.
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserGetter
	}
)

func NewService(repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) ListStudentIDs(ctx context.Context, courseID int) ([]int, error) {
	return svc.repo.ListStudentIDs(ctx, courseID)
}

func (svc *Service) ListStudents(ctx context.Context, courseID int) ([]Student, error) {
	return svc.repo.ListStudents(ctx, courseID)
}

func (svc *Service) ListCourseIDs(ctx context.Context, studentID int) ([]int, error) {
	return svc.repo.ListCourseIDsByStudent(ctx, studentID)
}

// Mutate applies the action to the student's enrollment in the course.
// The student must be an existing User with the student role.
func (svc *Service) Mutate(ctx context.Context, courseID int, m Mutation, action Action) error {
	usr, err := svc.users.GetByID(ctx, m.StudentID)
	if err != nil && err != user.ErrNotFound {
		return err
	}
	if err == user.ErrNotFound || !usr.IsStudent() {
		return core.NewValidationError(ErrNotStudent, core.FieldError{Field: "studentId", Error: ErrNotStudent.Error()})
	}

	ok, err := svc.repo.MutateEnrollment(ctx, courseID, m.StudentID, action, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Mutation is the body of an enrollment change.
type Mutation struct {
	StudentID int `json:"studentId" validate:"required"`
}
