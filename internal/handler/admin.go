package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/service"
)

// AdminHandler serves the admin area: teachers, slots, event settings and
// feedback.
type AdminHandler struct {
	Teachers   *repository.TeacherRepo
	Users      *repository.UserRepo
	Slots      *repository.SlotRepo
	Settings   *repository.SettingsRepo
	Feedback   *repository.FeedbackRepo
	Bookings   *service.BookingService
	Planner    *service.SlotPlanner
	Validator  *service.Validator
	Cache      *middleware.CachePurger
	BcryptCost int
	Logger     *zap.Logger
}

// NewAdminHandler panics when a dependency is missing. Cache may be nil.
func NewAdminHandler(h AdminHandler) *AdminHandler {
	if h.Teachers == nil || h.Users == nil || h.Slots == nil || h.Settings == nil || h.Feedback == nil ||
		h.Bookings == nil || h.Planner == nil || h.Logger == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	if h.Validator == nil {
		h.Validator = service.NewValidator()
	}
	return &h
}

const (
	msgUsernameTaken = "Benutzername bereits vergeben"
	msgSlotExists    = "Für diese Lehrkraft existiert zu diesem Zeitpunkt bereits ein Termin"
	msgSlotBooked    = "Gebuchte Termine müssen zuerst storniert werden"
)

type teacherReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Subject  string `json:"subject" validate:"max=120"`
	Room     string `json:"room" validate:"max=50"`
	System   string `json:"system" validate:"required,oneof=dual vollzeit"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Username string `json:"username" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

func (r *teacherReq) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Room = strings.TrimSpace(r.Room)
	r.System = strings.ToLower(strings.TrimSpace(r.System))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
}

func (r teacherReq) teacher() model.Teacher {
	t := model.Teacher{Name: r.Name, Subject: r.Subject, Room: r.Room, System: r.System}
	if r.Email != "" {
		t.Email = &r.Email
	}
	return t
}

func (h *AdminHandler) purge(ctx context.Context) {
	h.Cache.Purge(context.WithoutCancel(ctx))
}

// ListTeachers handles GET /api/admin/teachers.
func (h *AdminHandler) ListTeachers(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	teachers, err := h.Teachers.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"teachers": teachers})
}

// CreateTeacher handles POST /api/admin/teachers. With username and
// password the login account is created in the same transaction. Slots
// are generated when an event date is configured.
func (h *AdminHandler) CreateTeacher(c echo.Context) error {
	var req teacherReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.normalize()
	if err := h.Validator.Struct(req); err != nil {
		return err
	}
	if req.Username != "" && req.Password == "" {
		return &service.ValidationError{
			Message: service.MsgInvalidInput,
			Fields:  map[string]string{"password": "password ist ein Pflichtfeld"},
		}
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	t := req.teacher()
	if req.Username == "" {
		created, err := h.Teachers.Create(ctx, t)
		if err != nil {
			return err
		}
		t = *created
	} else {
		id, err := h.createWithAccount(ctx, t, req.Username, req.Password)
		if errors.Is(err, repository.ErrUsernameExists) {
			return &service.ConflictError{Message: msgUsernameTaken}
		}
		if err != nil {
			return err
		}
		t.ID = id
	}
	h.Logger.Info("teacher created", zap.Int64("teacher_id", t.ID), zap.Bool("account", req.Username != ""))

	generated := 0
	if st, err := h.Settings.Get(ctx); err == nil && st.EventDate != nil {
		res, err := h.Planner.Generate(ctx, t.ID, "")
		if err != nil {
			h.Logger.Warn("generate slots for new teacher failed", zap.Int64("teacher_id", t.ID), zap.Error(err))
		} else {
			generated = res.Created
		}
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"teacher": t, "generatedSlots": generated})
}

func (h *AdminHandler) createWithAccount(ctx context.Context, t model.Teacher, username, password string) (int64, error) {
	tx, err := h.Teachers.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := h.Teachers.CreateTx(ctx, tx, t)
	if err != nil {
		return 0, err
	}
	if _, err := h.Users.Create(ctx, tx, username, password, model.RoleTeacher, &id, h.BcryptCost); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// UpdateTeacher handles PUT /api/admin/teachers/:id. Account fields in the
// body are ignored.
func (h *AdminHandler) UpdateTeacher(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req teacherReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.normalize()
	req.Username, req.Password = "", ""
	if err := h.Validator.Struct(req); err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	t := req.teacher()
	t.ID = id
	updated, err := h.Teachers.Update(ctx, t)
	if err != nil {
		return notFoundAs(err, service.MsgTeacherNotFound)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, echo.Map{"teacher": updated})
}

// DeleteTeacher handles DELETE /api/admin/teachers/:id.
func (h *AdminHandler) DeleteTeacher(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Teachers.Delete(ctx, id); err != nil {
		return notFoundAs(err, service.MsgTeacherNotFound)
	}
	h.Logger.Info("teacher deleted", zap.Int64("teacher_id", id))
	h.purge(ctx)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ListSlots handles GET /api/admin/slots with an optional teacherId filter.
func (h *AdminHandler) ListSlots(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	var (
		slots []model.Slot
		err   error
	)
	if q := c.QueryParam("teacherId"); q != "" {
		teacherID, ok := positiveInt(q)
		if !ok {
			return errTeacherQuery
		}
		slots, err = h.Slots.ListByTeacher(ctx, teacherID)
	} else {
		slots, err = h.Slots.ListAll(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

type slotReq struct {
	TeacherID int64  `json:"teacherId" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required"`
}

type slotTimeReq struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required"`
}

// normalizeTimeRange accepts "HH:MM - HH:MM" with optional spacing around
// the dash and returns it in canonical form.
func normalizeTimeRange(s string) (string, error) {
	from, to, ok := strings.Cut(s, "-")
	if ok {
		start, err1 := time.Parse("15:04", strings.TrimSpace(from))
		end, err2 := time.Parse("15:04", strings.TrimSpace(to))
		if err1 == nil && err2 == nil && start.Before(end) {
			return start.Format("15:04") + " - " + end.Format("15:04"), nil
		}
	}
	return "", &service.ValidationError{
		Message: service.MsgInvalidInput,
		Fields:  map[string]string{"time": `time muss im Format "HH:MM - HH:MM" angegeben werden`},
	}
}

// CreateSlot handles POST /api/admin/slots.
func (h *AdminHandler) CreateSlot(c echo.Context) error {
	var req slotReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Date = strings.TrimSpace(req.Date)
	if err := h.Validator.Struct(req); err != nil {
		return err
	}
	timeRange, err := normalizeTimeRange(req.Time)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Teachers.GetByID(ctx, req.TeacherID); err != nil {
		return notFoundAs(err, service.MsgTeacherNotFound)
	}
	slot, err := h.Slots.Create(ctx, req.TeacherID, req.Date, timeRange)
	if errors.Is(err, repository.ErrConflict) {
		return &service.ConflictError{Message: msgSlotExists}
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"slot": slot})
}

// UpdateSlot handles PUT /api/admin/slots/:id. Only unbooked slots move.
func (h *AdminHandler) UpdateSlot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req slotTimeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Date = strings.TrimSpace(req.Date)
	if err := h.Validator.Struct(req); err != nil {
		return err
	}
	timeRange, err := normalizeTimeRange(req.Time)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	slot, err := h.Slots.UpdateTime(ctx, id, req.Date, timeRange)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return &service.ConflictError{Message: msgSlotBooked + " oder der Zeitpunkt ist bereits belegt"}
	case err != nil:
		return notFoundAs(err, service.MsgSlotNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"slot": slot})
}

// DeleteSlot handles DELETE /api/admin/slots/:id.
func (h *AdminHandler) DeleteSlot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	err = h.Slots.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return &service.ConflictError{Message: msgSlotBooked}
	case err != nil:
		return notFoundAs(err, service.MsgSlotNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// CancelBooking handles DELETE /api/admin/slots/:id/booking.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	slot, err := h.Bookings.Cancel(c.Request().Context(), id, 0)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "slot": slot})
}

type generateReq struct {
	TeacherID int64  `json:"teacherId"`
	Date      string `json:"date"`
}

// GenerateSlots handles POST /api/admin/slots/generate.
func (h *AdminHandler) GenerateSlots(c echo.Context) error {
	var req generateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.TeacherID < 0 {
		return errTeacherQuery
	}
	res, err := h.Planner.Generate(c.Request().Context(), req.TeacherID, strings.TrimSpace(req.Date))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// GetSettings handles GET /api/admin/settings.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	st, err := h.Settings.Get(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": st})
}

type settingsReq struct {
	EventDate       *string    `json:"eventDate" validate:"omitempty,datetime=2006-01-02"`
	BookingOpensAt  *time.Time `json:"bookingOpensAt"`
	BookingClosesAt *time.Time `json:"bookingClosesAt"`
	SlotMinutes     int        `json:"slotMinutes" validate:"omitempty,min=5,max=60"`
}

// PutSettings handles PUT /api/admin/settings.
func (h *AdminHandler) PutSettings(c echo.Context) error {
	var req settingsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.EventDate != nil {
		if d := strings.TrimSpace(*req.EventDate); d == "" {
			req.EventDate = nil
		} else {
			req.EventDate = &d
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		return err
	}
	if req.BookingOpensAt != nil && req.BookingClosesAt != nil && !req.BookingOpensAt.Before(*req.BookingClosesAt) {
		return &service.ValidationError{
			Message: service.MsgInvalidInput,
			Fields:  map[string]string{"bookingClosesAt": "bookingClosesAt muss nach bookingOpensAt liegen"},
		}
	}
	st := model.Settings{
		EventDate:       req.EventDate,
		BookingOpensAt:  req.BookingOpensAt,
		BookingClosesAt: req.BookingClosesAt,
		SlotMinutes:     req.SlotMinutes,
	}
	if st.SlotMinutes == 0 {
		st.SlotMinutes = service.DefaultSlotMinutes
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Settings.Save(ctx, st); err != nil {
		return err
	}
	saved, err := h.Settings.Get(ctx)
	if err != nil {
		return err
	}
	h.Logger.Info("settings updated", zap.Int("slot_minutes", saved.SlotMinutes))
	h.purge(ctx)
	return c.JSON(http.StatusOK, echo.Map{"settings": saved})
}

// ListFeedback handles GET /api/admin/feedback.
func (h *AdminHandler) ListFeedback(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	items, err := h.Feedback.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": items})
}
