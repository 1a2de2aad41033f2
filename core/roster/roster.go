// Package roster exports the students enrolled in a course as a flat table.
package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
)

// Header is the fixed column order of a roster.
var Header = []string{"id", "name", "email"}

const sheetName = "Roster"

type (
	CourseGetter interface {
		GetByID(ctx context.Context, id int) (course.Course, error)
	}

	StudentLister interface {
		ListStudents(ctx context.Context, courseID int) ([]enrollment.Student, error)
	}

	// Exporter builds rosters. Callers must authorize the export beforehand.
	Exporter struct {
		courses  CourseGetter
		students StudentLister
	}
)

func NewExporter(courses CourseGetter, students StudentLister) *Exporter {
	return &Exporter{courses: courses, students: students}
}

// Rows returns the roster lines of the course, without header.
// It fails with course.ErrNotFound if the course does not exist.
func (e *Exporter) Rows(ctx context.Context, courseID int) ([][]string, error) {
	if _, err := e.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	students, err := e.students.ListStudents(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, s.Email})
	}
	return rows, nil
}

// CSV serializes the roster as CSV. An empty course yields the header only.
func (e *Exporter) CSV(ctx context.Context, courseID int) ([]byte, error) {
	rows, err := e.Rows(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err = w.Write(Header); err != nil {
		return nil, errors.Wrap(err, "writing csv header")
	}
	if err = w.WriteAll(rows); err != nil {
		return nil, errors.Wrap(err, "writing csv rows")
	}
	return buf.Bytes(), nil
}

// XLSX serializes the roster as an Excel workbook with a single "Roster" sheet.
func (e *Exporter) XLSX(ctx context.Context, courseID int) ([]byte, error) {
	rows, err := e.Rows(ctx, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err = f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}
	for i, row := range append([][]string{Header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, errors.Wrap(err, "locating cell")
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err = f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, errors.Wrap(err, "writing row")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}
