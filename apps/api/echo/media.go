package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/services/filestore"
)

const mediaPrefix = "/media/submissions/"

func mediaLink(name string) string {
	return mediaPrefix + name
}

func registerMediaAPI(e *echo.Echo, files filestore.Storage) {
	e.GET(mediaPrefix+":file", func(ctx echo.Context) error {
		r, contentType, err := files.Open(ctx.Request().Context(), ctx.Param("file"))
		if err != nil {
			return errors.Wrap(err, "opening media file")
		}
		defer func() { _ = r.Close() }()
		return ctx.Stream(http.StatusOK, contentType, r)
	})
}
