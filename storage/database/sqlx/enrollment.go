package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/enrollment"
)

type enrollmentRepository struct {
	db core.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db core.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) ListStudentIDs(ctx context.Context, courseID int) ([]int, error) {
	ids := make([]int, 0)
	q := "SELECT student_id FROM enrollments WHERE course_id = $1 ORDER BY student_id"
	if err := repo.db.SelectContext(ctx, &ids, q, courseID); err != nil {
		return nil, errors.Wrap(err, "listing student ids")
	}
	return ids, nil
}

func (repo enrollmentRepository) ListStudents(ctx context.Context, courseID int) ([]enrollment.Student, error) {
	students := make([]enrollment.Student, 0)
	q := "SELECT u.id, u.name, u.email FROM enrollments e JOIN users u ON u.id = e.student_id " +
		"WHERE e.course_id = $1 ORDER BY u.id"
	if err := repo.db.SelectContext(ctx, &students, q, courseID); err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	return students, nil
}

func (repo enrollmentRepository) ListCourseIDsByStudent(ctx context.Context, studentID int) ([]int, error) {
	ids := make([]int, 0)
	q := "SELECT course_id FROM enrollments WHERE student_id = $1 ORDER BY course_id"
	if err := repo.db.SelectContext(ctx, &ids, q, studentID); err != nil {
		return nil, errors.Wrap(err, "listing student courses")
	}
	return ids, nil
}

func (repo enrollmentRepository) MutateEnrollment(ctx context.Context, courseID, studentID int, action enrollment.Action, at time.Time) (bool, error) {
	switch action {
	case enrollment.Enroll:
		q := "INSERT INTO enrollments (course_id, student_id, enrolled_at, updated_at) VALUES ($1, $2, $3, $3) " +
			"ON CONFLICT (course_id, student_id) DO NOTHING"
		if _, err := repo.db.ExecContext(ctx, q, courseID, studentID, at); err != nil {
			if pgErrCode(err) == pgForeignKeyViolation {
				return false, errors.Wrap(core.ErrInconsistentReference, "enrolling student")
			}
			return false, errors.Wrap(err, "enrolling student")
		}
		return true, nil

	case enrollment.Update:
		q := "UPDATE enrollments SET updated_at = $3 WHERE course_id = $1 AND student_id = $2"
		res, err := repo.db.ExecContext(ctx, q, courseID, studentID, at)
		return affected(res, err, "updating enrollment")

	case enrollment.Unenroll:
		q := "DELETE FROM enrollments WHERE course_id = $1 AND student_id = $2"
		res, err := repo.db.ExecContext(ctx, q, courseID, studentID)
		return affected(res, err, "unenrolling student")
	}
	return false, errors.Errorf("unknown enrollment action: %s", action)
}
