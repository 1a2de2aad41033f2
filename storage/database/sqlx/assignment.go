package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
)

const assignmentColumns = "id, course_id, title, points, due_date"

type assignmentRepository struct {
	db core.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db core.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) filter(qf assignment.QueryFilter) conditions {
	var conds conditions
	if qf.CourseID != 0 {
		conds.eq("course_id", qf.CourseID)
	}
	return conds
}

func (repo assignmentRepository) CountAssignments(ctx context.Context, filter assignment.QueryFilter) (int, error) {
	conds := repo.filter(filter)
	var count int
	if err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM assignments"+conds.String(), conds.args...); err != nil {
		return 0, errors.Wrap(err, "counting assignments")
	}
	return count, nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter, limit, offset int) ([]assignment.Assignment, error) {
	conds := repo.filter(filter)
	q, args := conds.paginate("SELECT "+assignmentColumns+" FROM assignments"+conds.String(), limit, offset)
	assignments := make([]assignment.Assignment, 0, limit)
	if err := repo.db.SelectContext(ctx, &assignments, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return assignments, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id int) (assignment.Assignment, error) {
	var a assignment.Assignment
	if err := repo.db.GetContext(ctx, &a, "SELECT "+assignmentColumns+" FROM assignments WHERE id = $1", id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "getting assignment by id")
	}
	return a, nil
}

func (repo assignmentRepository) ListAssignmentIDs(ctx context.Context, courseID int) ([]int, error) {
	ids := make([]int, 0)
	if err := repo.db.SelectContext(ctx, &ids, "SELECT id FROM assignments WHERE course_id = $1 ORDER BY id", courseID); err != nil {
		return nil, errors.Wrap(err, "listing assignment ids")
	}
	return ids, nil
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := "INSERT INTO assignments (course_id, title, points, due_date) VALUES ($1, $2, $3, $4) RETURNING id"
	if err := repo.db.GetContext(ctx, &a.ID, q, a.CourseID, a.Title, a.Points, a.DueDate); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return assignment.Assignment{}, errors.Wrap(core.ErrInconsistentReference, "inserting assignment")
		}
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, id int, changes core.Changes) (bool, error) {
	set, args := assignment.Fields.SetClause(changes, 1)
	if set == "" {
		var found bool
		err := repo.db.GetContext(ctx, &found, "SELECT EXISTS (SELECT 1 FROM assignments WHERE id = $1)", id)
		return found, errors.Wrap(err, "checking assignment")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := fmt.Sprintf("UPDATE assignments SET %s WHERE id = $%d", set, len(args)+1)
	res, err := tx.ExecContext(ctx, q, append(args, id)...)
	if pgErrCode(err) == pgForeignKeyViolation {
		return false, errors.Wrap(core.ErrInconsistentReference, "updating assignment")
	}
	ok, err := affected(res, err, "updating assignment")
	if err != nil || !ok {
		return ok, err
	}

	// submissions follow their assignment to its new course
	if courseID, moved := changes["courseId"]; moved {
		q = "UPDATE submissions SET course_id = $1 WHERE assignment_id = $2"
		if _, err = tx.ExecContext(ctx, q, courseID, id); err != nil {
			return false, errors.Wrap(err, "moving submissions")
		}
	}
	if err = tx.Commit(); err != nil {
		return false, errors.Wrap(err, "committing transaction")
	}
	return true, nil
}

// DeleteAssignment relies on ON DELETE CASCADE for submissions.
func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id int) (bool, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id)
	return affected(res, err, "deleting assignment")
}
