package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/export"
	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/service"
	"github.com/iliyamo/elternsprechtag/internal/utils"
)

// TeacherStore reads and edits teacher rows.
type TeacherStore interface {
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
	UpdateRoom(ctx context.Context, id int64, room string) error
}

// PasswordStore reads accounts and replaces password hashes.
type PasswordStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, password string, cost int) error
}

// FeedbackWriter stores anonymous feedback.
type FeedbackWriter interface {
	Create(ctx context.Context, message string) (int64, error)
}

// RequestLister lists booking requests of one teacher.
type RequestLister interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.BookingRequest, error)
}

// TeacherHandler serves the teacher area. Admins may use it as well;
// reads then need the teacherId query parameter.
type TeacherHandler struct {
	Slots      SlotLister
	Teachers   TeacherStore
	Users      PasswordStore
	Feedback   FeedbackWriter
	Requests   RequestLister
	Bookings   *service.BookingService
	RequestSvc *service.RequestService
	Cache      *middleware.CachePurger
	BcryptCost int
	Logger     *zap.Logger
}

// NewTeacherHandler panics when a dependency is missing. Cache may be nil.
func NewTeacherHandler(h TeacherHandler) *TeacherHandler {
	if h.Slots == nil || h.Teachers == nil || h.Users == nil || h.Feedback == nil ||
		h.Requests == nil || h.Bookings == nil || h.RequestSvc == nil || h.Logger == nil {
		panic("nil dependency passed to NewTeacherHandler")
	}
	return &h
}

// ListBookings handles GET /api/teacher/bookings.
func (h *TeacherHandler) ListBookings(c echo.Context) error {
	teacherID, err := readScope(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	slots, err := h.Slots.ListBookedByTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": slots})
}

// ListSlots handles GET /api/teacher/slots.
func (h *TeacherHandler) ListSlots(c echo.Context) error {
	teacherID, err := readScope(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	slots, err := h.Slots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// Accept handles PUT /api/teacher/bookings/:id/accept.
func (h *TeacherHandler) Accept(c echo.Context) error {
	scope, err := writeScope(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	slot, err := h.Bookings.Accept(c.Request().Context(), id, scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "slot": slot})
}

// Cancel handles DELETE /api/teacher/bookings/:id.
func (h *TeacherHandler) Cancel(c echo.Context) error {
	scope, err := writeScope(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	slot, err := h.Bookings.Cancel(c.Request().Context(), id, scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "slot": slot})
}

// Export handles GET /api/teacher/bookings/export and returns the booked
// slots as PDF.
func (h *TeacherHandler) Export(c echo.Context) error {
	teacherID, err := readScope(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	t, err := h.Teachers.GetByID(ctx, teacherID)
	if err != nil {
		return notFoundAs(err, service.MsgTeacherNotFound)
	}
	slots, err := h.Slots.ListBookedByTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	pdf, err := export.SchedulePDF(*t, slots, time.Now())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="termine-%d.pdf"`, t.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// Info handles GET /api/teacher/info.
func (h *TeacherHandler) Info(c echo.Context) error {
	teacherID, err := readScope(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	t, err := h.Teachers.GetByID(ctx, teacherID)
	if err != nil {
		return notFoundAs(err, service.MsgTeacherNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"teacher": t})
}

type roomReq struct {
	Room string `json:"room"`
}

// UpdateRoom handles PUT /api/teacher/room.
func (h *TeacherHandler) UpdateRoom(c echo.Context) error {
	teacherID, err := readScope(c)
	if err != nil {
		return err
	}
	var req roomReq
	if err := bind(c, &req); err != nil {
		return err
	}
	room := strings.TrimSpace(req.Room)
	if room == "" || utf8.RuneCountInString(room) > 50 {
		return &service.ValidationError{
			Message: service.MsgInvalidInput,
			Fields:  map[string]string{"room": "room ist ein Pflichtfeld (höchstens 50 Zeichen)"},
		}
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Teachers.UpdateRoom(ctx, teacherID, room); err != nil {
		return notFoundAs(err, service.MsgTeacherNotFound)
	}
	h.Cache.Purge(context.WithoutCancel(ctx))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "room": room})
}

type passwordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles PUT /api/teacher/password for the calling account.
func (h *TeacherHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	switch err := utils.CheckPassword(req.NewPassword); {
	case errors.Is(err, utils.ErrPasswordTooShort):
		return &service.ValidationError{Message: service.MsgInvalidInput,
			Fields: map[string]string{"newPassword": "newPassword muss mindestens 8 Zeichen lang sein"}}
	case errors.Is(err, utils.ErrPasswordTooLong):
		return &service.ValidationError{Message: service.MsgInvalidInput,
			Fields: map[string]string{"newPassword": "newPassword ist zu lang"}}
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		return notFoundAs(err, "Konto nicht gefunden")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return &service.ValidationError{Message: service.MsgInvalidInput,
			Fields: map[string]string{"currentPassword": "Aktuelles Passwort ist falsch"}}
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.BcryptCost); err != nil {
		return err
	}
	h.Logger.Info("password changed", zap.Int64("user_id", u.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type feedbackReq struct {
	Message string `json:"message"`
}

// SubmitFeedback handles POST /api/teacher/feedback. The author is not stored.
func (h *TeacherHandler) SubmitFeedback(c echo.Context) error {
	var req feedbackReq
	if err := bind(c, &req); err != nil {
		return err
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" || utf8.RuneCountInString(msg) > 2000 {
		return &service.ValidationError{Message: service.MsgInvalidInput,
			Fields: map[string]string{"message": "message ist ein Pflichtfeld (höchstens 2000 Zeichen)"}}
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Feedback.Create(ctx, msg); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// ListRequests handles GET /api/teacher/requests.
func (h *TeacherHandler) ListRequests(c echo.Context) error {
	teacherID, err := readScope(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	reqs, err := h.Requests.ListByTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": reqs})
}

type assignReq struct {
	SlotID int64 `json:"slotId"`
}

// AssignRequest handles PUT /api/teacher/requests/:id/assign.
func (h *TeacherHandler) AssignRequest(c echo.Context) error {
	scope, err := writeScope(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req assignReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.SlotID <= 0 {
		return &service.ValidationError{Message: service.MsgInvalidInput,
			Fields: map[string]string{"slotId": "slotId ist ein Pflichtfeld"}}
	}
	slot, err := h.RequestSvc.Assign(c.Request().Context(), id, scope, req.SlotID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "slot": slot})
}

// DeclineRequest handles PUT /api/teacher/requests/:id/decline.
func (h *TeacherHandler) DeclineRequest(c echo.Context) error {
	scope, err := writeScope(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.RequestSvc.Decline(c.Request().Context(), id, scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "request": req})
}
