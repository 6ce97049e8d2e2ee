// Package httpx holds the HTTP glue shared by both services: JSON binding
// and the central error renderer.
package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pdms/pdms/internal/platform/validate"
)

// ErrorBody is the shape of every non-validation error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// ErrorHandler renders errors returned by handlers and middleware:
// *validate.Errors become 422 with per-field detail, *echo.HTTPError keeps
// its status and message, anything else is logged and becomes a 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func render(err error) (int, interface{}) {
	if ve, ok := validate.As(err); ok {
		return http.StatusUnprocessableEntity, ve
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, ErrorBody{Detail: msg}
	}

	return http.StatusInternalServerError, ErrorBody{Detail: "internal server error"}
}
