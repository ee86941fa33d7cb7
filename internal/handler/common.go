// Package handler contains the Echo handlers of the portal. Handlers bind
// and check request data, call the services or repositories and map
// results to JSON; domain errors are returned as is and rendered by the
// error handler from NewHTTPErrorHandler.
package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/service"
)

const dbTimeout = 5 * time.Second

var (
	errForbidden    = &service.AuthError{Message: "Keine Berechtigung", Forbidden: true}
	errNoTeacher    = &service.AuthError{Message: "Konto ist keiner Lehrkraft zugeordnet", Forbidden: true}
	errInvalidBody  = &service.ValidationError{Message: "Ungültiger Anfrageinhalt"}
	errTeacherQuery = &service.ValidationError{
		Message: service.MsgInvalidInput,
		Fields:  map[string]string{"teacherId": "teacherId muss eine positive Zahl sein"},
	}
)

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// bind decodes the JSON body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func positiveInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// pathID reads the positive integer path parameter name.
func pathID(c echo.Context, name string) (int64, error) {
	id, ok := positiveInt(c.Param(name))
	if !ok {
		return 0, &service.ValidationError{
			Message: service.MsgInvalidInput,
			Fields:  map[string]string{name: name + " muss eine positive Zahl sein"},
		}
	}
	return id, nil
}

// readScope returns the teacher whose data a teacher-area read shows.
// Teachers always see their own data; admins name the teacher with the
// teacherId query parameter.
func readScope(c echo.Context) (int64, error) {
	switch middleware.Role(c) {
	case model.RoleTeacher:
		if id := middleware.TeacherID(c); id != 0 {
			return id, nil
		}
		return 0, errNoTeacher
	case model.RoleAdmin:
		id, ok := positiveInt(c.QueryParam("teacherId"))
		if !ok {
			return 0, errTeacherQuery
		}
		return id, nil
	}
	return 0, errForbidden
}

// writeScope returns the ownership restriction for slot writes: the
// caller's teacher id, or zero for admins, who may act on any slot.
func writeScope(c echo.Context) (int64, error) {
	switch middleware.Role(c) {
	case model.RoleTeacher:
		if id := middleware.TeacherID(c); id != 0 {
			return id, nil
		}
		return 0, errNoTeacher
	case model.RoleAdmin:
		return 0, nil
	}
	return 0, errForbidden
}

// notFoundAs translates repository.ErrNotFound into a NotFoundError with
// msg and passes other errors through.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &service.NotFoundError{Message: msg}
	}
	return err
}
