package assignment

import (
	"context"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/pagination"
)

var ErrNotFound = core.NewNotFoundError("assignment")

type (
	Repository interface {
		CountAssignments(ctx context.Context, filter QueryFilter) (int, error)
		QueryAssignments(ctx context.Context, filter QueryFilter, limit, offset int) ([]Assignment, error)
		GetAssignmentByID(ctx context.Context, id int) (Assignment, error)
		ListAssignmentIDs(ctx context.Context, courseID int) ([]int, error)
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// UpdateAssignment only writes the whitelisted Fields; it reports whether a row was affected.
		UpdateAssignment(ctx context.Context, id int, changes core.Changes) (bool, error)
		// DeleteAssignment also removes the assignment's submissions.
		DeleteAssignment(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	return svc.repo.CreateAssignment(ctx, Assignment{
		CourseID: na.CourseID,
		Title:    na.Title,
		Points:   na.Points,
		DueDate:  na.DueDate,
	})
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountAssignments(ctx, filter)
}

// Page returns the requested page of Assignments matching the filter, ordered by ID.
func (svc *Service) Page(ctx context.Context, filter QueryFilter, requested int) ([]Assignment, pagination.Page, error) {
	count, err := svc.repo.CountAssignments(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	pg := pagination.New(count, requested, pagination.DefaultSize)
	assignments, err := svc.repo.QueryAssignments(ctx, filter, pg.Size, pg.Offset)
	return assignments, pg, err
}

func (svc *Service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) ListIDs(ctx context.Context, courseID int) ([]int, error) {
	return svc.repo.ListAssignmentIDs(ctx, courseID)
}

func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	if changes := ua.Changes(); len(changes) > 0 {
		ok, err := svc.repo.UpdateAssignment(ctx, id, changes)
		if err != nil {
			return Assignment{}, err
		}
		if !ok {
			return Assignment{}, ErrNotFound
		}
	}
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) (bool, error) {
	return svc.repo.DeleteAssignment(ctx, id)
}
