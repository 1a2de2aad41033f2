package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/submission"
)

const submissionColumns = "id, assignment_id, student_id, course_id, submitted_at, file, content_type"

type submissionRepository struct {
	db core.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db core.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo submissionRepository) filter(qf submission.QueryFilter) conditions {
	var conds conditions
	if qf.AssignmentID != 0 {
		conds.eq("assignment_id", qf.AssignmentID)
	}
	if qf.StudentID != 0 {
		conds.eq("student_id", qf.StudentID)
	}
	return conds
}

func (repo submissionRepository) CountSubmissions(ctx context.Context, filter submission.QueryFilter) (int, error) {
	conds := repo.filter(filter)
	var count int
	if err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM submissions"+conds.String(), conds.args...); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return count, nil
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter submission.QueryFilter, limit, offset int) ([]submission.Submission, error) {
	conds := repo.filter(filter)
	q, args := conds.paginate("SELECT "+submissionColumns+" FROM submissions"+conds.String(), limit, offset)
	submissions := make([]submission.Submission, 0, limit)
	if err := repo.db.SelectContext(ctx, &submissions, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return submissions, nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id int) (submission.Submission, error) {
	var s submission.Submission
	if err := repo.db.GetContext(ctx, &s, "SELECT "+submissionColumns+" FROM submissions WHERE id = $1", id); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "getting submission by id")
	}
	return s, nil
}

// CreateSubmission locks the assignment row so that it cannot move to another course before the insert commits.
func (repo submissionRepository) CreateSubmission(ctx context.Context, ns submission.NewSubmission, at time.Time) (submission.Submission, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var courseID int
	err = tx.GetContext(ctx, &courseID, "SELECT course_id FROM assignments WHERE id = $1 FOR SHARE", ns.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Submission{}, assignment.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "checking assignment")
	}
	if courseID != ns.CourseID {
		return submission.Submission{}, core.ErrInconsistentReference
	}

	s := submission.Submission{
		AssignmentID: ns.AssignmentID,
		StudentID:    ns.StudentID,
		CourseID:     ns.CourseID,
		Timestamp:    at,
		File:         ns.File,
		ContentType:  ns.ContentType,
	}
	q := "INSERT INTO submissions (assignment_id, student_id, course_id, submitted_at, file, content_type) " +
		"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id"
	if err = tx.GetContext(ctx, &s.ID, q, s.AssignmentID, s.StudentID, s.CourseID, s.Timestamp, s.File, s.ContentType); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return submission.Submission{}, errors.Wrap(core.ErrInconsistentReference, "inserting submission")
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	if err = tx.Commit(); err != nil {
		return submission.Submission{}, errors.Wrap(err, "committing transaction")
	}
	return s, nil
}
