package httpx

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/pdms/pdms/internal/platform/validate"
)

// BindJSON decodes the request body into v regardless of Content-Type. An
// empty body decodes as an empty object; malformed JSON or a wrongly typed
// field becomes a *validate.Errors.
func BindJSON(c echo.Context, v interface{}) error {
	body := c.Request().Body
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	// body limit middleware reports through the reader
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return validate.Single(typeErr.Field, "must be of type %s", typeErr.Type.String())
	}
	return validate.Single("body", "invalid JSON: %v", err)
}
