// Package policy decides who may do what. Authorize is pure: the ownership facts it needs are
// fetched by the caller beforehand.
package policy

import (
	"github.com/trezcool/coursehub/core/user"
)

type Operation int

const (
	_ Operation = iota
	CreateCourse
	UpdateCourse
	DeleteCourse
	ReadCourse
	ListCourses
	ListStudents
	ExportRoster
	ModifyEnrollment
	ListCourseAssignments
	CreateAssignment
	UpdateAssignment
	DeleteAssignment
	ReadAssignment
	ListSubmissions
	CreateSubmission
	CreateUser
	ReadUser
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Caller is who is asking. The zero value is the anonymous caller.
type Caller struct {
	ID            int
	Role          user.Role
	Authenticated bool
}

// Facts are the ownership facts relevant to an Operation.
type Facts struct {
	CourseInstructorID int
	EnrolledStudentIDs []int
	TargetRole         user.Role // CreateUser
	TargetUserID       int       // ReadUser
}

// Authorize returns Allow only when the Operation's rule is satisfied; anything else is denied.
func Authorize(op Operation, caller Caller, facts Facts) Decision {
	switch op {
	case ReadCourse, ListCourses, ListCourseAssignments, ReadAssignment:
		return Allow
	}

	if !caller.Authenticated || !caller.Role.Valid() {
		return Deny
	}

	switch op {
	case CreateCourse, DeleteCourse:
		return decide(isAdmin(caller))
	case UpdateCourse, ListStudents, ExportRoster, ModifyEnrollment,
		CreateAssignment, UpdateAssignment, DeleteAssignment, ListSubmissions:
		return decide(isAdmin(caller) || ownsCourse(caller, facts))
	case CreateSubmission:
		return decide(caller.Role == user.RoleStudent && contains(facts.EnrolledStudentIDs, caller.ID))
	case CreateUser:
		switch facts.TargetRole {
		case user.RoleStudent:
			return Allow
		case user.RoleInstructor, user.RoleAdmin:
			return decide(isAdmin(caller))
		}
	case ReadUser:
		return decide(isAdmin(caller) || caller.ID == facts.TargetUserID)
	}
	return Deny
}

func decide(ok bool) Decision {
	return Decision(ok)
}

func isAdmin(c Caller) bool {
	return c.Role == user.RoleAdmin
}

func ownsCourse(c Caller, f Facts) bool {
	return c.Role == user.RoleInstructor && c.ID == f.CourseInstructorID
}

func contains(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
