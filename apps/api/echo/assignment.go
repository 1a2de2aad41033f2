package echoapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/pagination"
	"github.com/trezcool/coursehub/core/policy"
	"github.com/trezcool/coursehub/core/submission"
	"github.com/trezcool/coursehub/services/filestore"
)

const (
	contextCourseKey = "course"
	uploadField      = "file"
	uploadMaxSize    = "10M"
)

type assignmentApi struct {
	svc         *assignment.Service
	courses     *course.Service
	enrollments *enrollment.Service
	submissions *submission.Service
	files       filestore.Storage
	validate    *validator.Validate
}

func registerAssignmentAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps *Deps) {
	api := assignmentApi{
		svc:         deps.Assignments,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		submissions: deps.Submissions,
		files:       deps.Files,
		validate:    deps.Validate,
	}

	ag := e.Group("/assignments")
	ag.POST("", api.create, auth)

	// detail endpoints
	dg := ag.Group("/:id", assignmentMiddleware(api.svc, api.courses))
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update, auth)
	dg.DELETE("", api.destroy, auth)
	dg.GET("/submissions", api.listSubmissions, auth)
	dg.POST("/submissions", api.submit, auth, middleware.BodyLimit(uploadMaxSize))
}

// assignmentMiddleware loads the :id Assignment and its Course into the context.
func assignmentMiddleware(svc *assignment.Service, courses *course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := pathID(ctx, assignment.ErrNotFound)
			if err != nil {
				return err
			}
			a, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				return errors.Wrap(err, "finding assignment by ID")
			}
			c, err := courses.GetByID(ctx.Request().Context(), a.CourseID)
			if err != nil {
				return errors.Wrap(err, "finding assignment course")
			}
			ctx.Set(contextObjectKey, a)
			ctx.Set(contextCourseKey, c)
			return next(ctx)
		}
	}
}

func getContextAssignment(ctx echo.Context) (assignment.Assignment, course.Course, error) {
	a, aok := ctx.Get(contextObjectKey).(assignment.Assignment)
	c, cok := ctx.Get(contextCourseKey).(course.Course)
	if !aok || !cok {
		return assignment.Assignment{}, course.Course{}, errors.New("assignment object not found in echo.Context")
	}
	return a, c, nil
}

func assignmentLink(id int) string {
	return fmt.Sprintf("/assignments/%d", id)
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.courses.GetByID(ctx.Request().Context(), data.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err = authorize(ctx, policy.CreateAssignment, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, createdResponse{ID: a.ID, Links: createdLinks{"assignment": assignmentLink(a.ID)}})
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, c, err := getContextAssignment(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.ReadAssignment, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	a, c, err := getContextAssignment(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.UpdateAssignment, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	// moving the assignment also requires the rights on the target course
	if data.CourseID != nil && *data.CourseID != c.ID {
		target, err := api.courses.GetByID(ctx.Request().Context(), *data.CourseID)
		if err != nil {
			return errors.Wrap(err, "finding target course")
		}
		if err = authorize(ctx, policy.UpdateAssignment, policy.Facts{CourseInstructorID: target.InstructorID}); err != nil {
			return err
		}
	}

	a, err = api.svc.Update(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	a, c, err := getContextAssignment(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.DeleteAssignment, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	ok, err := api.svc.Delete(ctx.Request().Context(), a.ID)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if !ok {
		return assignment.ErrNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) listSubmissions(ctx echo.Context) error {
	a, c, err := getContextAssignment(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.ListSubmissions, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	filter := submission.QueryFilter{AssignmentID: a.ID, StudentID: queryInt(ctx, studentIDParam)}
	submissions, pg, err := api.submissions.Page(ctx.Request().Context(), filter, pagination.ParsePage(ctx.QueryParam(pageParam)))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, struct {
		Submissions []submission.Submission `json:"submissions"`
		pageResponse
	}{submissions, newPageResponse(ctx, pg)})
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	a, c, err := getContextAssignment(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	enrolled, err := api.enrollments.ListStudentIDs(rctx, c.ID)
	if err != nil {
		return errors.Wrap(err, "listing course students")
	}
	facts := policy.Facts{CourseInstructorID: c.InstructorID, EnrolledStudentIDs: enrolled}
	if err = authorize(ctx, policy.CreateSubmission, facts); err != nil {
		return err
	}

	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: uploadField, Error: "this field is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	contentType, ext, err := sniffUpload(file)
	if err != nil {
		return err
	}

	name := uuid.New().String() + ext
	if err = api.files.Save(rctx, name, contentType, file); err != nil {
		return errors.Wrap(err, "saving uploaded file")
	}

	id, _ := getContextIdentity(ctx)
	s, err := api.submissions.Create(rctx, submission.NewSubmission{
		AssignmentID: a.ID,
		StudentID:    id.UserID,
		CourseID:     a.CourseID,
		File:         name,
		ContentType:  contentType,
	})
	if err != nil {
		_ = api.files.Delete(rctx, name)
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, createdResponse{ID: s.ID, Links: createdLinks{"submission": mediaLink(s.File)}})
}

// sniffUpload detects the file type from its content and rewinds it.
func sniffUpload(file multipart.File) (string, string, error) {
	contentType, ext, err := filestore.DetectType(file)
	if err != nil {
		if err == filestore.ErrUnsupportedType {
			return "", "", core.NewValidationError(err, core.FieldError{Field: uploadField, Error: err.Error()})
		}
		return "", "", err
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return "", "", errors.Wrap(err, "rewinding uploaded file")
	}
	return contentType, ext, nil
}
