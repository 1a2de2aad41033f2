package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/course"
)

const courseColumns = "id, title, subject, number, term, instructor_id"

type courseRepository struct {
	db core.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db core.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) filter(qf course.QueryFilter) conditions {
	var conds conditions
	if qf.Subject != "" {
		conds.eq("subject", qf.Subject)
	}
	if qf.Number != "" {
		conds.eq("number", qf.Number)
	}
	if qf.Term != "" {
		conds.eq("term", qf.Term)
	}
	return conds
}

func (repo courseRepository) CountCourses(ctx context.Context, filter course.QueryFilter) (int, error) {
	conds := repo.filter(filter)
	var count int
	if err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM courses"+conds.String(), conds.args...); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return count, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, limit, offset int) ([]course.Course, error) {
	conds := repo.filter(filter)
	q, args := conds.paginate("SELECT "+courseColumns+" FROM courses"+conds.String(), limit, offset)
	courses := make([]course.Course, 0, limit)
	if err := repo.db.SelectContext(ctx, &courses, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id int) (course.Course, error) {
	var c course.Course
	if err := repo.db.GetContext(ctx, &c, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course by id")
	}
	return c, nil
}

func (repo courseRepository) ListCourseIDsByInstructor(ctx context.Context, instructorID int) ([]int, error) {
	ids := make([]int, 0)
	q := "SELECT id FROM courses WHERE instructor_id = $1 ORDER BY id"
	if err := repo.db.SelectContext(ctx, &ids, q, instructorID); err != nil {
		return nil, errors.Wrap(err, "listing instructor courses")
	}
	return ids, nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := "INSERT INTO courses (title, subject, number, term, instructor_id) VALUES ($1, $2, $3, $4, $5) RETURNING id"
	if err := repo.db.GetContext(ctx, &c.ID, q, c.Title, c.Subject, c.Number, c.Term, c.InstructorID); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return course.Course{}, errors.Wrap(core.ErrInconsistentReference, "inserting course")
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, id int, changes core.Changes) (bool, error) {
	set, args := course.Fields.SetClause(changes, 1)
	if set == "" {
		return repo.exists(ctx, id)
	}
	q := fmt.Sprintf("UPDATE courses SET %s WHERE id = $%d", set, len(args)+1)
	res, err := repo.db.ExecContext(ctx, q, append(args, id)...)
	if pgErrCode(err) == pgForeignKeyViolation {
		return false, errors.Wrap(core.ErrInconsistentReference, "updating course")
	}
	return affected(res, err, "updating course")
}

func (repo courseRepository) exists(ctx context.Context, id int) (bool, error) {
	var found bool
	if err := repo.db.GetContext(ctx, &found, "SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)", id); err != nil {
		return false, errors.Wrap(err, "checking course")
	}
	return found, nil
}

// DeleteCourse relies on ON DELETE CASCADE for enrollments, assignments & submissions.
func (repo courseRepository) DeleteCourse(ctx context.Context, id int) (bool, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	return affected(res, err, "deleting course")
}
