package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/mail"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/service"
)

func newAdmin(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	teachers := repository.NewTeacherRepo(db)
	slots := repository.NewSlotRepo(db)
	settings := repository.NewSettingsRepo(db)
	bookings := service.NewBookingService(service.BookingDeps{
		Slots:    slots,
		Teachers: teachers,
		Settings: settings,
		Mailer:   mail.NewSkipSender(zap.NewNop()),
		Logger:   zap.NewNop(),
	})
	h := NewAdminHandler(AdminHandler{
		Teachers:   teachers,
		Users:      repository.NewUserRepo(db),
		Slots:      slots,
		Settings:   settings,
		Feedback:   repository.NewFeedbackRepo(db),
		Bookings:   bookings,
		Planner:    service.NewSlotPlanner(slots, teachers, settings, zap.NewNop()),
		BcryptCost: 4,
		Logger:     zap.NewNop(),
	})

	e := newTestEcho()
	e.POST("/api/admin/teachers", h.CreateTeacher)
	e.POST("/api/admin/slots", h.CreateSlot)
	e.PUT("/api/admin/settings", h.PutSettings)
	e.DELETE("/api/admin/slots/:id", h.DeleteSlot)
	return e, mock
}

func fieldsOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok, "response carries no fields")
	return fields
}

func TestAdminPutSettingsValidation(t *testing.T) {
	e, mock := newAdmin(t)

	rec := do(e, http.MethodPut, "/api/admin/settings", `{"slotMinutes":3}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldsOf(t, decode(t, rec)), "slotMinutes")

	rec = do(e, http.MethodPut, "/api/admin/settings", `{"eventDate":"20.11.2026"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldsOf(t, decode(t, rec)), "eventDate")

	rec = do(e, http.MethodPut, "/api/admin/settings",
		`{"bookingOpensAt":"2026-11-10T08:00:00Z","bookingClosesAt":"2026-11-01T08:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldsOf(t, decode(t, rec)), "bookingClosesAt")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateTeacherValidation(t *testing.T) {
	e, mock := newAdmin(t)

	rec := do(e, http.MethodPost, "/api/admin/teachers", `{"name":"Herr Klein","system":"teilzeit"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldsOf(t, decode(t, rec)), "system")

	rec = do(e, http.MethodPost, "/api/admin/teachers", `{"name":"Herr Klein","system":"dual","username":"klein"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldsOf(t, decode(t, rec)), "password")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateSlotUnknownTeacher(t *testing.T) {
	e, mock := newAdmin(t)
	mock.ExpectQuery("FROM teachers WHERE id").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "subject", "room", "system", "email"}))

	rec := do(e, http.MethodPost, "/api/admin/slots", `{"teacherId":9,"date":"2026-11-20","time":"14:00-14:15"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.MsgTeacherNotFound, decode(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateSlotBadTime(t *testing.T) {
	e, mock := newAdmin(t)

	rec := do(e, http.MethodPost, "/api/admin/slots", `{"teacherId":9,"date":"2026-11-20","time":"nachmittags"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldsOf(t, decode(t, rec)), "time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteBookedSlot(t *testing.T) {
	e, mock := newAdmin(t)
	mock.ExpectExec("DELETE FROM slots").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM slots WHERE").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "date", "time", "booked", "status",
			"visitor_type", "parent_name", "student_name", "company_name", "trainee_name", "representative_name",
			"class_name", "email", "message", "verification_token", "verification_sent_at", "verified_at",
			"confirmation_sent_at", "cancellation_sent_at", "updated_at"}).
			AddRow(5, 1, "2026-11-20", "14:00 - 14:15", true, "reserved",
				"parent", "Anna Muster", "Max Muster", nil, nil, nil,
				"10b", "anna@example.org", nil, "tok", nil, nil,
				nil, nil, time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)))

	rec := do(e, http.MethodDelete, "/api/admin/slots/5", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgSlotBooked, decode(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
