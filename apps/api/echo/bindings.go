package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/coursehub/core/pagination"
)

const (
	pageParam      = "page"
	studentIDParam = "studentid"
	formatParam    = "format"
)

// pathID parses the :id path param; malformed ids are reported as notFound.
func pathID(ctx echo.Context, notFound error) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return 0, notFound
	}
	return id, nil
}

// queryInt returns the positive int query param, 0 when missing or malformed.
func queryInt(ctx echo.Context, name string) int {
	v, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

type (
	createdLinks map[string]string

	createdResponse struct {
		ID    int          `json:"id"`
		Links createdLinks `json:"links"`
	}

	linksResponse struct {
		Links createdLinks `json:"links"`
	}

	pageResponse struct {
		pagination.Page
		Links pagination.Links `json:"links"`
	}
)

func newPageResponse(ctx echo.Context, pg pagination.Page) pageResponse {
	return pageResponse{Page: pg, Links: pg.Links(ctx.Request().URL.Path, ctx.QueryParams())}
}
