package roster

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
)

type fakeCourses map[int]course.Course

func (fc fakeCourses) GetByID(_ context.Context, id int) (course.Course, error) {
	if c, ok := fc[id]; ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

type fakeStudents struct {
	byCourse map[int][]enrollment.Student
	err      error
}

func (fs fakeStudents) ListStudents(_ context.Context, courseID int) ([]enrollment.Student, error) {
	return fs.byCourse[courseID], fs.err
}

func newTestExporter(err error) *Exporter {
	return NewExporter(
		fakeCourses{5: {ID: 5, InstructorID: 9}, 6: {ID: 6, InstructorID: 9}},
		fakeStudents{
			byCourse: map[int][]enrollment.Student{
				5: {
					{ID: 40, Name: "Ada Lovelace", Email: "ada@test.edu"},
					{ID: 42, Name: "Doe, Jane", Email: "jane@test.edu"},
				},
			},
			err: err,
		},
	)
}

func TestExporter_CSV(t *testing.T) {
	e := newTestExporter(nil)

	tests := []struct {
		name     string
		courseID int
		want     string
		wantErr  error
	}{
		{name: "course not found", courseID: 99, wantErr: course.ErrNotFound},
		{name: "no students", courseID: 6, want: "id,name,email\n"},
		{
			name: "students", courseID: 5,
			want: "id,name,email\n40,Ada Lovelace,ada@test.edu\n42,\"Doe, Jane\",jane@test.edu\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.CSV(context.Background(), tt.courseID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExporter_CSV_storeFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestExporter(boom).CSV(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestExporter_XLSX(t *testing.T) {
	e := newTestExporter(nil)

	_, err := e.XLSX(context.Background(), 99)
	assert.Equal(t, course.ErrNotFound, err)

	tests := []struct {
		name     string
		courseID int
		want     [][]string
	}{
		{name: "no students", courseID: 6, want: [][]string{Header}},
		{
			name: "students", courseID: 5,
			want: [][]string{
				Header,
				{"40", "Ada Lovelace", "ada@test.edu"},
				{"42", "Doe, Jane", "jane@test.edu"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := e.XLSX(context.Background(), tt.courseID)
			require.NoError(t, err)

			f, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = f.Close() }()

			rows, err := f.GetRows(sheetName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}
