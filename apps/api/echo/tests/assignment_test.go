package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/pagination"
	"github.com/trezcool/coursehub/core/submission"
	"github.com/trezcool/coursehub/core/user"
	testutil "github.com/trezcool/coursehub/tests"
)

var (
	textContent = []byte("my homework, in plain text\n")
	pdfContent  = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	zipContent  = []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00")
)

func TestAssignmentApi(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.userRepo, "Admin", "admin@test.edu", user.RoleAdmin)
	inst := testutil.CreateUser(t, e.userRepo, "Instructor", "instructor@test.edu", user.RoleInstructor)
	inst2 := testutil.CreateUser(t, e.userRepo, "Instructor 2", "instructor2@test.edu", user.RoleInstructor)
	student := testutil.CreateUser(t, e.userRepo, "Student", "student@test.edu", user.RoleStudent)
	c1 := testutil.CreateCourse(t, e.courseRepo, "Algorithms", "CS", "261", "fa24", inst.ID)
	c2 := testutil.CreateCourse(t, e.courseRepo, "Databases", "CS", "340", "fa24", inst2.ID)
	c3 := testutil.CreateCourse(t, e.courseRepo, "Compilers", "CS", "480", "fa24", inst.ID)
	testutil.Enroll(t, e.enrollmentRepo, c1.ID, student.ID)

	due := time.Date(2024, 10, 1, 23, 59, 0, 0, time.UTC)
	body := func(courseID, points int) []byte {
		return []byte(fmt.Sprintf(`{"courseId":%d,"title":"Homework 1","points":%d,"dueDate":"2024-10-02T01:59:00+02:00"}`, courseID, points))
	}
	want := func(id, courseID int, title string, points int) []byte {
		return marshalObj(t, assignment.Assignment{ID: id, CourseID: courseID, Title: title, Points: points, DueDate: due})
	}

	tests := []httpTest{
		{
			name:     "create no token",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(c1.ID, 10),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "create missing fields",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     []byte(`{}`),
			token:    e.getToken(t, inst),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"courseId":"this field is required","title":"this field is required","dueDate":"this field is required"}`),
		},
		{
			name:     "create negative points",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(c1.ID, -1),
			token:    e.getToken(t, inst),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"points":"points must be 0 or greater"}`),
		},
		{
			name:     "create in unknown course",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(999, 10),
			token:    e.getToken(t, admin),
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"course not found"}`),
		},
		{
			name:     "create by other instructor",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(c1.ID, 10),
			token:    e.getToken(t, inst2),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "create by student",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(c1.ID, 10),
			token:    e.getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "create by owner",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(c1.ID, 10),
			token:    e.getToken(t, inst),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"id":1,"links":{"assignment":"/assignments/1"}}`),
		},
		{
			name:     "create by admin",
			method:   http.MethodPost,
			path:     "/assignments",
			body:     body(c1.ID, 0),
			token:    e.getToken(t, admin),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"id":2,"links":{"assignment":"/assignments/2"}}`),
		},
		{
			name:     "anonymous retrieve",
			path:     "/assignments/1",
			wantCode: http.StatusOK,
			wantData: want(1, c1.ID, "Homework 1", 10),
		},
		{
			name:     "retrieve not found",
			path:     "/assignments/999",
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"assignment not found"}`),
		},
		{
			name:     "course assignments",
			path:     fmt.Sprintf("/courses/%d/assignments", c1.ID),
			wantCode: http.StatusOK,
			wantData: []byte(`{"assignments":[1,2]}`),
		},
		{
			name:     "update no token",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(`{"title":"Homework One"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "update by other instructor",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(`{"title":"Homework One"}`),
			token:    e.getToken(t, inst2),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "update by owner",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(`{"title":" Homework One ","points":20}`),
			token:    e.getToken(t, inst),
			wantCode: http.StatusOK,
			wantData: want(1, c1.ID, "Homework One", 20),
		},
		{
			name:     "move to invalid course id",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(`{"courseId":0}`),
			token:    e.getToken(t, inst),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"courseId":"courseId must be 1 or greater"}`),
		},
		{
			name:     "move to unknown course",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(`{"courseId":999}`),
			token:    e.getToken(t, inst),
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"course not found"}`),
		},
		{
			name:     "move to a course of another instructor",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(fmt.Sprintf(`{"courseId":%d}`, c2.ID)),
			token:    e.getToken(t, inst),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "move to an owned course",
			method:   http.MethodPatch,
			path:     "/assignments/1",
			body:     []byte(fmt.Sprintf(`{"courseId":%d}`, c3.ID)),
			token:    e.getToken(t, inst),
			wantCode: http.StatusOK,
			wantData: want(1, c3.ID, "Homework One", 20),
		},
		{
			name:     "destroy by other instructor",
			method:   http.MethodDelete,
			path:     "/assignments/2",
			token:    e.getToken(t, inst2),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "destroy by owner",
			method:   http.MethodDelete,
			path:     "/assignments/2",
			token:    e.getToken(t, inst),
			wantCode: http.StatusNoContent,
		},
		{
			name:     "retrieve destroyed",
			path:     "/assignments/2",
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"assignment not found"}`),
		},
		{
			name:     "course assignments after move & destroy",
			path:     fmt.Sprintf("/courses/%d/assignments", c1.ID),
			wantCode: http.StatusOK,
			wantData: []byte(`{"assignments":[]}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.run(t, tt)
		})
	}
}

func TestAssignmentApi_submissions(t *testing.T) {
	e := setup(t)
	inst := testutil.CreateUser(t, e.userRepo, "Instructor", "instructor@test.edu", user.RoleInstructor)
	inst2 := testutil.CreateUser(t, e.userRepo, "Instructor 2", "instructor2@test.edu", user.RoleInstructor)
	s1 := testutil.CreateUser(t, e.userRepo, "Student 1", "student1@test.edu", user.RoleStudent)
	s2 := testutil.CreateUser(t, e.userRepo, "Student 2", "student2@test.edu", user.RoleStudent)
	s3 := testutil.CreateUser(t, e.userRepo, "Student 3", "student3@test.edu", user.RoleStudent)
	c := testutil.CreateCourse(t, e.courseRepo, "Algorithms", "CS", "261", "fa24", inst.ID)
	testutil.Enroll(t, e.enrollmentRepo, c.ID, s1.ID, s2.ID)
	a := testutil.CreateAssignment(t, e.assignmentRepo, c.ID, "Homework 1", 10, time.Now().Add(48*time.Hour))
	path := fmt.Sprintf("/assignments/%d/submissions", a.ID)

	type upload struct {
		name     string
		path     string
		token    string
		filename string
		content  []byte
		wantCode int
		wantData []byte
		wantExt  string
		wantType string
	}
	uploads := []upload{
		{
			name:     "no token",
			path:     path,
			filename: "hw.txt",
			content:  textContent,
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "assignment not found",
			path:     "/assignments/999/submissions",
			token:    e.getToken(t, s1),
			filename: "hw.txt",
			content:  textContent,
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"assignment not found"}`),
		},
		{
			name:     "unenrolled student",
			path:     path,
			token:    e.getToken(t, s3),
			filename: "hw.txt",
			content:  textContent,
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "course instructor",
			path:     path,
			token:    e.getToken(t, inst),
			filename: "hw.txt",
			content:  textContent,
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "missing file",
			path:     path,
			token:    e.getToken(t, s1),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"file":"this field is required"}`),
		},
		{
			name:     "unsupported file",
			path:     path,
			token:    e.getToken(t, s1),
			filename: "hw.txt", // the name is not trusted
			content:  zipContent,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"file":"unsupported file type"}`),
		},
		{
			name:     "text",
			path:     path,
			token:    e.getToken(t, s1),
			filename: "hw.txt",
			content:  textContent,
			wantCode: http.StatusCreated,
			wantExt:  ".txt",
			wantType: "text/plain",
		},
		{
			name:     "pdf",
			path:     path,
			token:    e.getToken(t, s2),
			filename: "hw.bin",
			content:  pdfContent,
			wantCode: http.StatusCreated,
			wantExt:  ".pdf",
			wantType: "application/pdf",
		},
	}
	for _, tt := range uploads {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newUploadRequest(t, tt.path, tt.token, tt.filename, tt.content)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
			if tt.wantCode != http.StatusCreated {
				return
			}

			var resp struct {
				ID    int               `json:"id"`
				Links map[string]string `json:"links"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			link := resp.Links["submission"]
			assert.True(t, strings.HasPrefix(link, "/media/submissions/"), link)
			assert.True(t, strings.HasSuffix(link, tt.wantExt), link)

			s, err := e.submissionRepo.GetSubmissionByID(ctx, resp.ID)
			require.NoError(t, err)
			assert.Equal(t, a.ID, s.AssignmentID)
			assert.Equal(t, c.ID, s.CourseID)
			assert.Equal(t, tt.wantType, s.ContentType)
			assert.Equal(t, strings.TrimPrefix(link, "/media/submissions/"), s.File)

			// the stored file is served back as uploaded
			req, rec = newRequest(http.MethodGet, link)
			e.app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.content, rec.Body.Bytes())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.wantType))
		})
	}

	all, err := e.submissionRepo.QuerySubmissions(ctx, submission.QueryFilter{AssignmentID: a.ID}, pagination.DefaultSize, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	pageData := func(submissions []submission.Submission) []byte {
		return marshalObj(t, map[string]interface{}{
			"submissions": submissions,
			"page":        1,
			"totalPages":  1,
			"pageSize":    pagination.DefaultSize,
			"count":       len(submissions),
			"links":       pagination.Links{},
		})
	}

	tests := []httpTest{
		{
			name:     "list no token",
			path:     path,
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "list by other instructor",
			path:     path,
			token:    e.getToken(t, inst2),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "list by enrolled student",
			path:     path,
			token:    e.getToken(t, s1),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "list by owner",
			path:     path,
			token:    e.getToken(t, inst),
			wantCode: http.StatusOK,
			wantData: pageData(all),
		},
		{
			name:     "filter by student",
			path:     fmt.Sprintf("%s?studentid=%d", path, s2.ID),
			token:    e.getToken(t, inst),
			wantCode: http.StatusOK,
			wantData: pageData(all[1:]),
		},
		{
			name:     "malformed student filter lists all",
			path:     path + "?studentid=lol",
			token:    e.getToken(t, inst),
			wantCode: http.StatusOK,
			wantData: pageData(all),
		},
		{
			name:     "media not found",
			path:     "/media/submissions/nope.txt",
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"file not found"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.run(t, tt)
		})
	}
}

func TestAssignmentApi_structuredTextUploads(t *testing.T) {
	e := setup(t)
	inst := testutil.CreateUser(t, e.userRepo, "Instructor", "instructor@test.edu", user.RoleInstructor)
	s := testutil.CreateUser(t, e.userRepo, "Student", "student@test.edu", user.RoleStudent)
	c := testutil.CreateCourse(t, e.courseRepo, "Algorithms", "CS", "261", "fa24", inst.ID)
	testutil.Enroll(t, e.enrollmentRepo, c.ID, s.ID)
	a := testutil.CreateAssignment(t, e.assignmentRepo, c.ID, "Essay", 10, time.Now().Add(48*time.Hour))
	path := fmt.Sprintf("/assignments/%d/submissions", a.ID)

	tests := []struct {
		name    string
		content []byte
	}{
		{"prose", []byte("Hello, this is my essay.\n")},
		{"csv-like", []byte("name,grade\nada,A\nbob,B\n")},
		{"json-like", []byte(`{"answer": 42}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newUploadRequest(t, path, e.getToken(t, s), "essay.txt", tt.content)
			e.app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			var resp struct {
				ID    int               `json:"id"`
				Links map[string]string `json:"links"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			link := resp.Links["submission"]
			assert.True(t, strings.HasSuffix(link, ".txt"), link)

			sub, err := e.submissionRepo.GetSubmissionByID(ctx, resp.ID)
			require.NoError(t, err)
			assert.Equal(t, "text/plain", sub.ContentType)

			req, rec = newRequest(http.MethodGet, link)
			e.app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.content, rec.Body.Bytes())
			assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAssignmentApi_submissionFollowsAssignmentMove(t *testing.T) {
	e := setup(t)
	inst := testutil.CreateUser(t, e.userRepo, "Instructor", "instructor@test.edu", user.RoleInstructor)
	s := testutil.CreateUser(t, e.userRepo, "Student", "student@test.edu", user.RoleStudent)
	c1 := testutil.CreateCourse(t, e.courseRepo, "Algorithms", "CS", "261", "fa24", inst.ID)
	c2 := testutil.CreateCourse(t, e.courseRepo, "Compilers", "CS", "480", "fa24", inst.ID)
	testutil.Enroll(t, e.enrollmentRepo, c1.ID, s.ID)
	a := testutil.CreateAssignment(t, e.assignmentRepo, c1.ID, "Homework 1", 10, time.Now().Add(48*time.Hour))

	req, rec := newUploadRequest(t, fmt.Sprintf("/assignments/%d/submissions", a.ID), e.getToken(t, s), "hw.txt", textContent)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	e.run(t, httpTest{
		method:   http.MethodPatch,
		path:     fmt.Sprintf("/assignments/%d", a.ID),
		body:     []byte(fmt.Sprintf(`{"courseId":%d}`, c2.ID)),
		token:    e.getToken(t, inst),
		wantCode: http.StatusOK,
	})

	submissions, err := e.submissionRepo.QuerySubmissions(ctx, submission.QueryFilter{AssignmentID: a.ID}, pagination.DefaultSize, 0)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, c2.ID, submissions[0].CourseID)

	// the student is not enrolled in the new course
	req, rec = newUploadRequest(t, fmt.Sprintf("/assignments/%d/submissions", a.ID), e.getToken(t, s), "hw.txt", textContent)
	e.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// Course 5 taught by instructor 9, student 42 enrolled & submitting to assignment 7.
func TestScenario_submitAndReview(t *testing.T) {
	e := setup(t)
	owner := e.userAt(t, 9, "Owner", "owner@test.edu", user.RoleInstructor)
	other := e.userAt(t, 11, "Other", "other@test.edu", user.RoleInstructor)
	student := e.userAt(t, 42, "Student", "student@test.edu", user.RoleStudent)
	c := e.courseAt(t, 5, owner.ID)

	for i := 1; i < 7; i++ {
		testutil.CreateAssignment(t, e.assignmentRepo, c.ID, fmt.Sprintf("Filler %d", i), 0, time.Now())
	}
	a := testutil.CreateAssignment(t, e.assignmentRepo, c.ID, "Final project", 100, time.Now().Add(72*time.Hour))
	require.Equal(t, 7, a.ID)

	e.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/courses/5/students/enroll",
		body:     []byte(`{"studentId":42}`),
		token:    e.getToken(t, owner),
		wantCode: http.StatusOK,
		wantData: []byte(`{"links":{"course":"/courses/5"}}`),
	})

	req, rec := newUploadRequest(t, "/assignments/7/submissions", e.getToken(t, student), "project.pdf", pdfContent)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	submissions, err := e.submissionRepo.QuerySubmissions(ctx, submission.QueryFilter{}, pagination.DefaultSize, 0)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	s := submissions[0]
	assert.Equal(t, 5, s.CourseID)
	assert.Equal(t, 42, s.StudentID)
	assert.Equal(t, 7, s.AssignmentID)

	e.run(t, httpTest{
		path:     "/assignments/7/submissions?page=1",
		token:    e.getToken(t, owner),
		wantCode: http.StatusOK,
		wantData: marshalObj(t, map[string]interface{}{
			"submissions": submissions,
			"page":        1,
			"totalPages":  1,
			"pageSize":    pagination.DefaultSize,
			"count":       1,
			"links":       pagination.Links{},
		}),
	})

	e.run(t, httpTest{
		path:     "/assignments/7/submissions?page=1",
		token:    e.getToken(t, other),
		wantCode: http.StatusForbidden,
		wantData: marshalObj(t, errForbidden),
	})
}
