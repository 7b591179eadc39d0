package middleware

import (
	"net/http"

	"UniPath/internal/apperr"
	"UniPath/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewHTTPErrorHandler maps service errors onto the JSON error envelope
// {"success": false, "error": ..., "errors": {field: message}}.
func NewHTTPErrorHandler(v *validation.Validator, logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		body := echo.Map{"success": false}

		var (
			httpErr *echo.HTTPError
			vErrs   validator.ValidationErrors
			appVErr *apperr.ValidationError
		)
		switch {
		case errors.As(err, &httpErr):
			code = httpErr.Code
			body["error"] = httpErr.Message
		case errors.As(err, &vErrs):
			code = http.StatusBadRequest
			body["error"] = "validation failed"
			body["errors"] = v.Translate(vErrs)
		case errors.As(err, &appVErr):
			code = http.StatusBadRequest
			body["error"] = appVErr.Error()
			if len(appVErr.Fields) > 0 {
				fields := make(map[string]string, len(appVErr.Fields))
				for _, f := range appVErr.Fields {
					fields[f.Field] = f.Error
				}
				body["errors"] = fields
			}
		case errors.Is(err, apperr.ErrNotFound):
			code = http.StatusNotFound
			body["error"] = apperr.Message(err)
		case errors.Is(err, apperr.ErrConflict):
			code = http.StatusConflict
			body["error"] = apperr.Message(err)
		case errors.Is(err, apperr.ErrForbidden):
			code = http.StatusForbidden
			body["error"] = apperr.Message(err)
		case errors.Is(err, apperr.ErrUnauthorized):
			code = http.StatusUnauthorized
			body["error"] = apperr.Message(err)
		default:
			body["error"] = http.StatusText(http.StatusInternalServerError)
			logger.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
			)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("writing error response", zap.Error(err))
		}
	}
}
