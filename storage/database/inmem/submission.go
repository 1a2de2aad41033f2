package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

// query must be called with the lock held.
func (repo *submissionRepository) query(filter submission.QueryFilter) []submission.Submission {
	submissions := make([]submission.Submission, 0)
	for _, id := range sortedKeys(repo.db.submissions) {
		if s := repo.db.submissions[id]; filter.Match(s) {
			submissions = append(submissions, s)
		}
	}
	return submissions
}

func (repo *submissionRepository) CountSubmissions(_ context.Context, filter submission.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter submission.QueryFilter, limit, offset int) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return window(repo.query(filter), limit, offset), nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id int) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return s, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, ns submission.NewSubmission, at time.Time) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.assignments[ns.AssignmentID]
	if !ok {
		return submission.Submission{}, assignment.ErrNotFound
	}
	if a.CourseID != ns.CourseID {
		return submission.Submission{}, core.ErrInconsistentReference
	}
	if _, ok = repo.db.users[ns.StudentID]; !ok {
		return submission.Submission{}, core.ErrInconsistentReference
	}

	s := submission.Submission{
		ID:           repo.db.nextPK("submissions"),
		AssignmentID: ns.AssignmentID,
		StudentID:    ns.StudentID,
		CourseID:     ns.CourseID,
		Timestamp:    at,
		File:         ns.File,
		ContentType:  ns.ContentType,
	}
	repo.db.submissions[s.ID] = s
	return s, nil
}
