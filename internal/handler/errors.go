package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/service"
)

const msgInternal = "Interner Serverfehler"

// NewHTTPErrorHandler maps service errors to JSON responses of the form
// {"error": message}. Validation errors also carry "fields". Unknown errors
// are logged and answered with 500.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			code = http.StatusInternalServerError
			body = echo.Map{"error": msgInternal}

			verr     *service.ValidationError
			conflict *service.ConflictError
			notFound *service.NotFoundError
			authErr  *service.AuthError
			httpErr  *echo.HTTPError
		)
		switch {
		case errors.As(err, &verr):
			code = http.StatusBadRequest
			body = echo.Map{"error": verr.Message}
			if len(verr.Fields) > 0 {
				body["fields"] = verr.Fields
			}
		case errors.As(err, &conflict):
			code, body = http.StatusConflict, echo.Map{"error": conflict.Message}
		case errors.As(err, &notFound):
			code, body = http.StatusNotFound, echo.Map{"error": notFound.Message}
		case errors.As(err, &authErr):
			code, body = authErr.Status(), echo.Map{"error": authErr.Message}
		case errors.As(err, &httpErr):
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				body = echo.Map{"error": msg}
			} else {
				body = echo.Map{"error": http.StatusText(code)}
			}
			if code >= http.StatusInternalServerError {
				logger.Error("http error", zap.String("route", c.Path()), zap.Error(err))
			}
		default:
			logger.Error("unhandled error",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}
