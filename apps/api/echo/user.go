package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/course"
	"github.com/trezcool/coursehub/core/enrollment"
	"github.com/trezcool/coursehub/core/policy"
	"github.com/trezcool/coursehub/core/token"
	"github.com/trezcool/coursehub/core/user"
)

type userApi struct {
	svc         *user.Service
	courses     *course.Service
	enrollments *enrollment.Service
	tokens      *token.Service
	validate    *validator.Validate
}

func registerUserAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps *Deps) {
	api := userApi{
		svc:         deps.Users,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		tokens:      deps.Tokens,
		validate:    deps.Validate,
	}

	ug := e.Group("/users")
	ug.POST("/login", api.login)
	ug.POST("", api.create, auth)
	ug.GET("/:id", api.retrieve, auth)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}
	// only admins can create instructors & admins
	if err := authorize(ctx, policy.CreateUser, policy.Facts{TargetRole: data.GetRole()}); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, createdResponse{
		ID:    usr.ID,
		Links: createdLinks{"user": fmt.Sprintf("/users/%d", usr.ID)},
	})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "authenticating")
	}
	tkn, err := api.tokens.Issue(usr.ID, usr.Role)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: tkn})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, user.ErrNotFound)
	if err != nil {
		return err
	}
	if err = authorize(ctx, policy.ReadUser, policy.Facts{TargetUserID: id}); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.GetByID(rctx, id)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	detail := user.Detail{User: usr}
	switch usr.Role {
	case user.RoleInstructor:
		detail.Courses, err = api.courses.ListIDsByInstructor(rctx, usr.ID)
	case user.RoleStudent:
		detail.Courses, err = api.enrollments.ListCourseIDs(rctx, usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "listing user courses")
	}
	return ctx.JSON(http.StatusOK, detail)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
