// Package inmemdb implements the domain repositories in memory; it backs tests and throwaway servers.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/submission"
	"github.com/trezcool/coursehub/core/user"
)

type enrollmentKey struct {
	courseID, studentID int
}

// DB holds every table behind a single lock so that cascades stay atomic.
type DB struct {
	mutex sync.RWMutex
	pks   map[string]int

	users       map[int]user.User
	courses     map[int]course.Course
	enrollments map[enrollmentKey]enrollment.Enrollment
	assignments map[int]assignment.Assignment
	submissions map[int]submission.Submission
}

func Open() *DB {
	return &DB{
		pks:         make(map[string]int),
		users:       make(map[int]user.User),
		courses:     make(map[int]course.Course),
		enrollments: make(map[enrollmentKey]enrollment.Enrollment),
		assignments: make(map[int]assignment.Assignment),
		submissions: make(map[int]submission.Submission),
	}
}

// Reset empties every table; primary keys keep increasing.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.users = make(map[int]user.User)
	db.courses = make(map[int]course.Course)
	db.enrollments = make(map[enrollmentKey]enrollment.Enrollment)
	db.assignments = make(map[int]assignment.Assignment)
	db.submissions = make(map[int]submission.Submission)
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK(table string) int {
	db.pks[table]++
	return db.pks[table]
}

// deleteCourse must be called with the write lock held.
func (db *DB) deleteCourse(id int) {
	delete(db.courses, id)
	for key := range db.enrollments {
		if key.courseID == id {
			delete(db.enrollments, key)
		}
	}
	for aid, a := range db.assignments {
		if a.CourseID == id {
			db.deleteAssignment(aid)
		}
	}
}

// deleteAssignment must be called with the write lock held.
func (db *DB) deleteAssignment(id int) {
	delete(db.assignments, id)
	for sid, s := range db.submissions {
		if s.AssignmentID == id {
			delete(db.submissions, sid)
		}
	}
}

func sortedKeys[T any](table map[int]T) []int {
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// window returns items[offset:offset+limit], bounded.
func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func badValue(field string, val interface{}) error {
	return errors.Errorf("invalid value for %s: %v (%T)", field, val, val)
}
