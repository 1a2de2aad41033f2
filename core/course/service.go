package course

import (
	"context"
	"errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/pagination"
	"github.com/trezcool/coursehub/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("course")
	ErrNotInstructor = errors.New("must reference an instructor")
)

type (
	Repository interface {
		CountCourses(ctx context.Context, filter QueryFilter) (int, error)
		QueryCourses(ctx context.Context, filter QueryFilter, limit, offset int) ([]Course, error)
		GetCourseByID(ctx context.Context, id int) (Course, error)
		ListCourseIDsByInstructor(ctx context.Context, instructorID int) ([]int, error)
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// UpdateCourse only writes the whitelisted Fields; it reports whether a row was affected.
		UpdateCourse(ctx context.Context, id int, changes core.Changes) (bool, error)
		// DeleteCourse also removes the course's enrollments, assignments & submissions.
		DeleteCourse(ctx context.Context, id int) (bool, error)
	}

	// UserGetter is the part of user.Service needed to check instructors.
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

func (svc *Service) checkInstructor(ctx context.Context, id int) error {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil && err != user.ErrNotFound {
		return err
	}
	if err == user.ErrNotFound || !usr.IsInstructor() {
		return core.NewValidationError(ErrNotInstructor, core.FieldError{Field: "instructorId", Error: ErrNotInstructor.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		Subject:      nc.Subject,
		Number:       nc.Number,
		Term:         nc.Term,
		InstructorID: nc.InstructorID,
	})
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountCourses(ctx, filter)
}

// Page returns the requested page of Courses matching the filter, ordered by ID.
func (svc *Service) Page(ctx context.Context, filter QueryFilter, requested int) ([]Course, pagination.Page, error) {
	count, err := svc.repo.CountCourses(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	pg := pagination.New(count, requested, pagination.DefaultSize)
	courses, err := svc.repo.QueryCourses(ctx, filter, pg.Size, pg.Offset)
	return courses, pg, err
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) ListIDsByInstructor(ctx context.Context, instructorID int) ([]int, error) {
	return svc.repo.ListCourseIDsByInstructor(ctx, instructorID)
}

func (svc *Service) Update(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	if changes := uc.Changes(); len(changes) > 0 {
		ok, err := svc.repo.UpdateCourse(ctx, id, changes)
		if err != nil {
			return Course{}, err
		}
		if !ok {
			return Course{}, ErrNotFound
		}
	}
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) (bool, error) {
	return svc.repo.DeleteCourse(ctx, id)
}
