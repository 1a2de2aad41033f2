package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

type Assignment struct {
	ID       int       `json:"id" db:"id"`
	CourseID int       `json:"courseId" db:"course_id"`
	Title    string    `json:"title" db:"title"`
	Points   int       `json:"points" db:"points"`
	DueDate  time.Time `json:"dueDate" db:"due_date"` // UTC
}

// Fields are the writable fields of an Assignment.
var Fields = core.FieldSet{
	{Name: "courseId", Column: "course_id"},
	{Name: "title", Column: "title"},
	{Name: "points", Column: "points"},
	{Name: "dueDate", Column: "due_date"},
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	CourseID int       `json:"courseId" validate:"required"`
	Title    string    `json:"title" validate:"required,notblank"`
	Points   int       `json:"points" validate:"min=0"`
	DueDate  time.Time `json:"dueDate" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.DueDate = na.DueDate.UTC()
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
type UpdateAssignment struct {
	CourseID *int       `json:"courseId" validate:"omitempty,min=1"`
	Title    *string    `json:"title" validate:"omitempty,notblank"`
	Points   *int       `json:"points" validate:"omitempty,min=0"`
	DueDate  *time.Time `json:"dueDate"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	if ua.Title != nil {
		*ua.Title = core.CleanString(*ua.Title)
	}
	if ua.DueDate != nil {
		*ua.DueDate = ua.DueDate.UTC()
	}
	return validate.Struct(ua)
}

// Changes returns the provided fields only.
func (ua UpdateAssignment) Changes() core.Changes {
	ch := make(core.Changes)
	if ua.CourseID != nil {
		ch["courseId"] = *ua.CourseID
	}
	if ua.Title != nil {
		ch["title"] = *ua.Title
	}
	if ua.Points != nil {
		ch["points"] = *ua.Points
	}
	if ua.DueDate != nil {
		ch["dueDate"] = *ua.DueDate
	}
	return ch
}

// QueryFilter narrows down assignment listings; zero fields match everything.
type QueryFilter struct {
	CourseID int
}

func (qf QueryFilter) Match(a Assignment) bool {
	return qf.CourseID == 0 || qf.CourseID == a.CourseID
}
