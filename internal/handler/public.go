package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/service"
)

// TeacherLister lists teachers. *repository.TeacherRepo implements it.
type TeacherLister interface {
	List(ctx context.Context) ([]model.Teacher, error)
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
}

// SlotLister reads the slots of one teacher. *repository.SlotRepo
// implements it.
type SlotLister interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.Slot, error)
	ListBookedByTeacher(ctx context.Context, teacherID int64) ([]model.Slot, error)
}

// PublicHandler serves the anonymous booking pages: teacher and slot
// lists, bookings, booking requests and the verification links.
type PublicHandler struct {
	Teachers TeacherLister
	Slots    SlotLister
	Settings service.SettingsReader
	Bookings *service.BookingService
	Requests *service.RequestService
}

func NewPublicHandler(teachers TeacherLister, slots SlotLister, settings service.SettingsReader,
	bookings *service.BookingService, requests *service.RequestService) *PublicHandler {
	if teachers == nil || slots == nil || settings == nil || bookings == nil || requests == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Teachers: teachers, Slots: slots, Settings: settings, Bookings: bookings, Requests: requests}
}

// publicTeacher leaves out the contact address.
type publicTeacher struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Room    string `json:"room"`
	System  string `json:"system"`
}

const msgEmailVerified = "E-Mail-Adresse erfolgreich bestätigt"

// ListTeachers handles GET /api/teachers.
func (h *PublicHandler) ListTeachers(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	teachers, err := h.Teachers.List(ctx)
	if err != nil {
		return err
	}
	out := make([]publicTeacher, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, publicTeacher{ID: t.ID, Name: t.Name, Subject: t.Subject, Room: t.Room, System: t.System})
	}
	return c.JSON(http.StatusOK, echo.Map{"teachers": out})
}

// ListSlots handles GET /api/slots?teacherId=N. Only availability is exposed.
func (h *PublicHandler) ListSlots(c echo.Context) error {
	teacherID, ok := positiveInt(c.QueryParam("teacherId"))
	if !ok {
		return errTeacherQuery
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	slots, err := h.Slots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	out := make([]model.PublicSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Public())
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// GetSettings handles GET /api/settings.
func (h *PublicHandler) GetSettings(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	st, err := h.Settings.Get(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"eventDate":       st.EventDate,
		"bookingOpensAt":  st.BookingOpensAt,
		"bookingClosesAt": st.BookingClosesAt,
		"slotMinutes":     st.SlotMinutes,
		"bookingOpen":     st.BookingOpen(time.Now()),
	})
}

// Book handles POST /api/bookings.
func (h *PublicHandler) Book(c echo.Context) error {
	var in service.BookingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	res, err := h.Bookings.Reserve(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "updatedSlot": res.Slot})
}

// VerifyBooking handles GET /api/bookings/verify/:token.
func (h *PublicHandler) VerifyBooking(c echo.Context) error {
	if _, err := h.Bookings.Verify(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msgEmailVerified})
}

// CreateRequest handles POST /api/booking-requests.
func (h *PublicHandler) CreateRequest(c echo.Context) error {
	var in service.RequestInput
	if err := bind(c, &in); err != nil {
		return err
	}
	req, err := h.Requests.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "request": req})
}

// VerifyRequest handles GET /api/booking-requests/verify/:token.
func (h *PublicHandler) VerifyRequest(c echo.Context) error {
	if _, err := h.Requests.Verify(c.Request().Context(), strings.TrimSpace(c.Param("token"))); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msgEmailVerified})
}
