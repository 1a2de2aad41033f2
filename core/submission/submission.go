package submission

import (
	"context"
	"time"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/pagination"
)

var ErrNotFound = core.NewNotFoundError("submission")

// Submission is immutable once created.
type Submission struct {
	ID           int       `json:"id" db:"id"`
	AssignmentID int       `json:"assignmentId" db:"assignment_id"`
	StudentID    int       `json:"studentId" db:"student_id"`
	CourseID     int       `json:"courseId" db:"course_id"`
	Timestamp    time.Time `json:"timestamp" db:"submitted_at"` // UTC
	File         string    `json:"file" db:"file"`              // storage locator
	ContentType  string    `json:"contentType" db:"content_type"`
}

// NewSubmission contains information needed to create a new Submission.
type NewSubmission struct {
	AssignmentID int
	StudentID    int
	CourseID     int
	File         string
	ContentType  string
}

// QueryFilter narrows down submission listings; zero fields match everything.
type QueryFilter struct {
	AssignmentID int
	StudentID    int
}

func (qf QueryFilter) Match(s Submission) bool {
	return (qf.AssignmentID == 0 || qf.AssignmentID == s.AssignmentID) &&
		(qf.StudentID == 0 || qf.StudentID == s.StudentID)
}

type (
	Repository interface {
		CountSubmissions(ctx context.Context, filter QueryFilter) (int, error)
		QuerySubmissions(ctx context.Context, filter QueryFilter, limit, offset int) ([]Submission, error)
		GetSubmissionByID(ctx context.Context, id int) (Submission, error)
		// CreateSubmission checks, within the same transaction, that the assignment still belongs
		// to ns.CourseID; it fails with core.ErrInconsistentReference otherwise.
		CreateSubmission(ctx context.Context, ns NewSubmission, at time.Time) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSubmission) (Submission, error) {
	return svc.repo.CreateSubmission(ctx, ns, time.Now().UTC())
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountSubmissions(ctx, filter)
}

// Page returns the requested page of Submissions matching the filter, ordered by ID.
func (svc *Service) Page(ctx context.Context, filter QueryFilter, requested int) ([]Submission, pagination.Page, error) {
	count, err := svc.repo.CountSubmissions(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	pg := pagination.New(count, requested, pagination.DefaultSize)
	submissions, err := svc.repo.QuerySubmissions(ctx, filter, pg.Size, pg.Offset)
	return submissions, pg, err
}

func (svc *Service) GetByID(ctx context.Context, id int) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}
