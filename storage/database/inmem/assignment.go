package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

// query must be called with the lock held.
func (repo *assignmentRepository) query(filter assignment.QueryFilter) []assignment.Assignment {
	assignments := make([]assignment.Assignment, 0)
	for _, id := range sortedKeys(repo.db.assignments) {
		if a := repo.db.assignments[id]; filter.Match(a) {
			assignments = append(assignments, a)
		}
	}
	return assignments
}

func (repo *assignmentRepository) CountAssignments(_ context.Context, filter assignment.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter, limit, offset int) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return window(repo.query(filter), limit, offset), nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id int) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) ListAssignmentIDs(_ context.Context, courseID int) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]int, 0)
	for _, a := range repo.query(assignment.QueryFilter{CourseID: courseID}) {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[a.CourseID]; !ok {
		return assignment.Assignment{}, core.ErrInconsistentReference
	}
	a.ID = repo.db.nextPK("assignments")
	repo.db.assignments[a.ID] = a
	return a, nil
}

// UpdateAssignment moves the assignment's submissions along when its course changes.
func (repo *assignmentRepository) UpdateAssignment(_ context.Context, id int, changes core.Changes) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.assignments[id]
	if !ok {
		return false, nil
	}
	for name, val := range assignment.Fields.Whitelist(changes) {
		var valid bool
		switch name {
		case "courseId":
			a.CourseID, valid = val.(int)
			if _, exists := repo.db.courses[a.CourseID]; valid && !exists {
				return false, core.ErrInconsistentReference
			}
		case "title":
			a.Title, valid = val.(string)
		case "points":
			a.Points, valid = val.(int)
		case "dueDate":
			a.DueDate, valid = val.(time.Time)
		}
		if !valid {
			return false, badValue(name, val)
		}
	}
	repo.db.assignments[id] = a
	for sid, s := range repo.db.submissions {
		if s.AssignmentID == id && s.CourseID != a.CourseID {
			s.CourseID = a.CourseID
			repo.db.submissions[sid] = s
		}
	}
	return true, nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id int) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[id]; !ok {
		return false, nil
	}
	repo.db.deleteAssignment(id)
	return true, nil
}
