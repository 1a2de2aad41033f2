package course

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

type Course struct {
	ID           int    `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	Subject      string `json:"subject" db:"subject"`
	Number       string `json:"number" db:"number"`
	Term         string `json:"term" db:"term"`
	InstructorID int    `json:"instructorId" db:"instructor_id"`
}

// Fields are the writable fields of a Course.
var Fields = core.FieldSet{
	{Name: "title", Column: "title"},
	{Name: "subject", Column: "subject"},
	{Name: "number", Column: "number"},
	{Name: "term", Column: "term"},
	{Name: "instructorId", Column: "instructor_id"},
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title        string `json:"title" validate:"required,notblank"`
	Subject      string `json:"subject" validate:"required,notblank"`
	Number       string `json:"number" validate:"required,notblank"`
	Term         string `json:"term" validate:"required,notblank"`
	InstructorID int    `json:"instructorId" validate:"required"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Number = core.CleanString(nc.Number)
	nc.Term = core.CleanString(nc.Term)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkInstructor(ctx, nc.InstructorID)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title        *string `json:"title" validate:"omitempty,notblank"`
	Subject      *string `json:"subject" validate:"omitempty,notblank"`
	Number       *string `json:"number" validate:"omitempty,notblank"`
	Term         *string `json:"term" validate:"omitempty,notblank"`
	InstructorID *int    `json:"instructorId"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	for _, s := range []*string{uc.Title, uc.Subject, uc.Number, uc.Term} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.InstructorID != nil {
		return svc.checkInstructor(ctx, *uc.InstructorID)
	}
	return nil
}

// Changes returns the provided fields only.
func (uc UpdateCourse) Changes() core.Changes {
	ch := make(core.Changes)
	if uc.Title != nil {
		ch["title"] = *uc.Title
	}
	if uc.Subject != nil {
		ch["subject"] = *uc.Subject
	}
	if uc.Number != nil {
		ch["number"] = *uc.Number
	}
	if uc.Term != nil {
		ch["term"] = *uc.Term
	}
	if uc.InstructorID != nil {
		ch["instructorId"] = *uc.InstructorID
	}
	return ch
}

// QueryFilter narrows down course listings; empty fields match everything.
type QueryFilter struct {
	Subject string `query:"subject"`
	Number  string `query:"number"`
	Term    string `query:"term"`
}

func (qf *QueryFilter) Clean() {
	qf.Subject = core.CleanString(qf.Subject)
	qf.Number = core.CleanString(qf.Number)
	qf.Term = core.CleanString(qf.Term)
}

func (qf QueryFilter) Match(c Course) bool {
	return (qf.Subject == "" || qf.Subject == c.Subject) &&
		(qf.Number == "" || qf.Number == c.Number) &&
		(qf.Term == "" || qf.Term == c.Term)
}
