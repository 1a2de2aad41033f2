package inmemdb

import (
	"context"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// query must be called with the lock held.
func (repo *courseRepository) query(filter course.QueryFilter) []course.Course {
	courses := make([]course.Course, 0)
	for _, id := range sortedKeys(repo.db.courses) {
		if c := repo.db.courses[id]; filter.Match(c) {
			courses = append(courses, c)
		}
	}
	return courses
}

func (repo *courseRepository) CountCourses(_ context.Context, filter course.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, limit, offset int) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return window(repo.query(filter), limit, offset), nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id int) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) ListCourseIDsByInstructor(_ context.Context, instructorID int) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]int, 0)
	for _, id := range sortedKeys(repo.db.courses) {
		if repo.db.courses[id].InstructorID == instructorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[c.InstructorID]; !ok {
		return course.Course{}, core.ErrInconsistentReference
	}
	c.ID = repo.db.nextPK("courses")
	repo.db.courses[c.ID] = c
	return c, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, id int, changes core.Changes) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c, ok := repo.db.courses[id]
	if !ok {
		return false, nil
	}
	for name, val := range course.Fields.Whitelist(changes) {
		var valid bool
		switch name {
		case "title":
			c.Title, valid = val.(string)
		case "subject":
			c.Subject, valid = val.(string)
		case "number":
			c.Number, valid = val.(string)
		case "term":
			c.Term, valid = val.(string)
		case "instructorId":
			c.InstructorID, valid = val.(int)
			if _, exists := repo.db.users[c.InstructorID]; valid && !exists {
				return false, core.ErrInconsistentReference
			}
		}
		if !valid {
			return false, badValue(name, val)
		}
	}
	repo.db.courses[id] = c
	return true, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id int) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return false, nil
	}
	repo.db.deleteCourse(id)
	return true, nil
}
