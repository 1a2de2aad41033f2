package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/coursehub/apps/api/echo"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/roster"
	"github.com/trezcool/coursehub/core/submission"
	"github.com/trezcool/coursehub/core/token"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/services/filestore"
	logsvc "github.com/trezcool/coursehub/services/logger"
	inmemdb "github.com/trezcool/coursehub/storage/database/inmem"
	testutil "github.com/trezcool/coursehub/tests"
)

var (
	ctx = context.Background()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type env struct {
	app    *echoapi.Server
	tokens *token.Service

	userRepo       user.Repository
	courseRepo     course.Repository
	enrollmentRepo enrollment.Repository
	assignmentRepo assignment.Repository
	submissionRepo submission.Repository
}

func setup(t *testing.T) *env {
	t.Helper()
	return setupWith(t, nil)
}

// setupWith lets a test wrap the user repository the services see.
func setupWith(t *testing.T, wrapUsers func(user.Repository) user.Repository) *env {
	t.Helper()
	conf := testutil.NewConfig(t)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, logsvc.PrefixAPI, 0), conf)
	logger.Enable(false)

	db := inmemdb.Open()
	e := &env{
		tokens:         token.NewService(conf),
		userRepo:       inmemdb.NewUserRepository(db),
		courseRepo:     inmemdb.NewCourseRepository(db),
		enrollmentRepo: inmemdb.NewEnrollmentRepository(db),
		assignmentRepo: inmemdb.NewAssignmentRepository(db),
		submissionRepo: inmemdb.NewSubmissionRepository(db),
	}

	files, err := filestore.New(ctx, conf)
	require.NoError(t, err)

	validate, translator := testutil.NewValidator()
	users := e.userRepo
	if wrapUsers != nil {
		users = wrapUsers(users)
	}
	usrSvc := user.NewService(users)
	courseSvc := course.NewService(e.courseRepo, usrSvc)
	enrSvc := enrollment.NewService(e.enrollmentRepo, usrSvc)

	e.app = echoapi.NewServer(conf, logger, &echoapi.Deps{
		Validate:    validate,
		Translator:  translator,
		Tokens:      e.tokens,
		Users:       usrSvc,
		Courses:     courseSvc,
		Enrollments: enrSvc,
		Assignments: assignment.NewService(e.assignmentRepo),
		Submissions: submission.NewService(e.submissionRepo),
		Rosters:     roster.NewExporter(courseSvc, enrSvc),
		Files:       files,
	})
	return e
}

// userAt creates filler students until the next user gets the wanted id.
func (e *env) userAt(t *testing.T, id int, name, email string, role user.Role) user.User {
	t.Helper()
	for {
		n, err := e.userRepo.CountUsers(ctx)
		require.NoError(t, err)
		if n+1 >= id {
			break
		}
		testutil.CreateUser(t, e.userRepo, "Filler", fmt.Sprintf("filler%d@test.edu", n+1), user.RoleStudent)
	}
	usr := testutil.CreateUser(t, e.userRepo, name, email, role)
	require.Equal(t, id, usr.ID)
	return usr
}

// courseAt creates filler courses until the next course gets the wanted id.
func (e *env) courseAt(t *testing.T, id, instructorID int) course.Course {
	t.Helper()
	for {
		n, err := e.courseRepo.CountCourses(ctx, course.QueryFilter{})
		require.NoError(t, err)
		if n+1 >= id {
			break
		}
		testutil.CreateCourse(t, e.courseRepo, "Filler", "FIL", "000", "fa24", instructorID)
	}
	c := testutil.CreateCourse(t, e.courseRepo, "Algorithms", "CS", "261", "fa24", instructorID)
	require.Equal(t, id, c.ID)
	return c
}

func (e *env) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	tkn, err := e.tokens.Issue(usr.ID, usr.Role)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return tkn
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func newUploadRequest(t *testing.T, path, token, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (e *env) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
