package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/assignment"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/pagination"
	"github.com/trezcool/coursehub/core/policy"
	"github.com/trezcool/coursehub/core/roster"
)

const (
	contextObjectKey = "object"

	xlsxFormat      = "xlsx"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv"
)

var errInvalidAction = errors.New("invalid enrollment action")

type courseApi struct {
	svc         *course.Service
	enrollments *enrollment.Service
	assignments *assignment.Service
	rosters     *roster.Exporter
	validate    *validator.Validate
}

func registerCourseAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps *Deps) {
	api := courseApi{
		svc:         deps.Courses,
		enrollments: deps.Enrollments,
		assignments: deps.Assignments,
		rosters:     deps.Rosters,
		validate:    deps.Validate,
	}

	cg := e.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create, auth)

	// detail endpoints
	dg := cg.Group("/:id", courseMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update, auth)
	dg.DELETE("", api.destroy, auth)
	dg.GET("/students", api.listStudents, auth)
	dg.POST("/students/:action", api.mutateEnrollment, auth)
	dg.GET("/rosters", api.exportRoster, auth)
	dg.GET("/assignments", api.listAssignments)
}

// courseMiddleware loads the :id Course into the context.
func courseMiddleware(svc *course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := pathID(ctx, course.ErrNotFound)
			if err != nil {
				return err
			}
			c, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				return errors.Wrap(err, "finding course by ID")
			}
			ctx.Set(contextObjectKey, c)
			return next(ctx)
		}
	}
}

func getContextCourse(ctx echo.Context) (course.Course, error) {
	if c, ok := ctx.Get(contextObjectKey).(course.Course); ok {
		return c, nil
	}
	return course.Course{}, errors.New("course object not found in echo.Context")
}

func courseLink(id int) string {
	return fmt.Sprintf("/courses/%d", id)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := course.QueryFilter{
		Subject: ctx.QueryParam("subject"),
		Number:  ctx.QueryParam("number"),
		Term:    ctx.QueryParam("term"),
	}
	filter.Clean()

	courses, pg, err := api.svc.Page(ctx.Request().Context(), filter, pagination.ParsePage(ctx.QueryParam(pageParam)))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, struct {
		Courses []course.Course `json:"courses"`
		pageResponse
	}{courses, newPageResponse(ctx, pg)})
}

func (api *courseApi) create(ctx echo.Context) error {
	if err := authorize(ctx, policy.CreateCourse, policy.Facts{}); err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, createdResponse{ID: c.ID, Links: createdLinks{"course": courseLink(c.ID)}})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.UpdateCourse, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.DeleteCourse, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	ok, err := api.svc.Delete(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if !ok {
		return course.ErrNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) listStudents(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.ListStudents, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	ids, err := api.enrollments.ListStudentIDs(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing course students")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": ids})
}

func (api *courseApi) mutateEnrollment(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	action, ok := enrollment.ParseAction(ctx.Param("action"))
	if !ok {
		return core.NewValidationError(errInvalidAction, core.FieldError{Field: "action", Error: errInvalidAction.Error()})
	}
	if err = authorize(ctx, policy.ModifyEnrollment, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	var data enrollment.Mutation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Mutation")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	if err = api.enrollments.Mutate(ctx.Request().Context(), c.ID, data, action); err != nil {
		return errors.Wrapf(err, "applying %s", action)
	}
	return ctx.JSON(http.StatusOK, linksResponse{Links: createdLinks{"course": courseLink(c.ID)}})
}

func (api *courseApi) exportRoster(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.ExportRoster, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	export, ext, contentType := api.rosters.CSV, "csv", csvContentType
	if ctx.QueryParam(formatParam) == xlsxFormat {
		export, ext, contentType = api.rosters.XLSX, xlsxFormat, xlsxContentType
	}
	data, err := export(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "exporting roster")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="roster-%d.%s"`, c.ID, ext))
	return ctx.Blob(http.StatusOK, contentType, data)
}

func (api *courseApi) listAssignments(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.ListCourseAssignments, policy.Facts{CourseInstructorID: c.InstructorID}); err != nil {
		return err
	}

	ids, err := api.assignments.ListIDs(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing course assignments")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"assignments": ids})
}
