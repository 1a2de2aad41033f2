package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

// studentIDs needs the caller to hold the lock.
func (repo *enrollmentRepository) studentIDs(courseID int) []int {
	ids := make([]int, 0)
	for key := range repo.db.enrollments {
		if key.courseID == courseID {
			ids = append(ids, key.studentID)
		}
	}
	sort.Ints(ids)
	return ids
}

func (repo *enrollmentRepository) ListStudentIDs(_ context.Context, courseID int) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.studentIDs(courseID), nil
}

func (repo *enrollmentRepository) ListStudents(_ context.Context, courseID int) ([]enrollment.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := repo.studentIDs(courseID)
	students := make([]enrollment.Student, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok {
			students = append(students, enrollment.Student{ID: usr.ID, Name: usr.Name, Email: usr.Email})
		}
	}
	return students, nil
}

func (repo *enrollmentRepository) ListCourseIDsByStudent(_ context.Context, studentID int) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]int, 0)
	for key := range repo.db.enrollments {
		if key.studentID == studentID {
			ids = append(ids, key.courseID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *enrollmentRepository) MutateEnrollment(_ context.Context, courseID, studentID int, action enrollment.Action, at time.Time) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enrollmentKey{courseID: courseID, studentID: studentID}
	enr, enrolled := repo.db.enrollments[key]

	switch action {
	case enrollment.Enroll:
		if enrolled {
			return true, nil
		}
		_, courseExists := repo.db.courses[courseID]
		_, studentExists := repo.db.users[studentID]
		if !courseExists || !studentExists {
			return false, core.ErrInconsistentReference
		}
		repo.db.enrollments[key] = enrollment.Enrollment{CourseID: courseID, StudentID: studentID, EnrolledAt: at, UpdatedAt: at}
		return true, nil

	case enrollment.Update:
		if enrolled {
			enr.UpdatedAt = at
			repo.db.enrollments[key] = enr
		}
		return enrolled, nil

	case enrollment.Unenroll:
		delete(repo.db.enrollments, key)
		return enrolled, nil
	}
	return false, errors.Errorf("unknown enrollment action: %s", action)
}

// GetEnrollment is not part of enrollment.Repository; tests use it to inspect timestamps.
func (repo *enrollmentRepository) GetEnrollment(courseID, studentID int) (enrollment.Enrollment, bool) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enr, ok := repo.db.enrollments[enrollmentKey{courseID: courseID, studentID: studentID}]
	return enr, ok
}
