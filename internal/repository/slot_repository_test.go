package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

var slotColumnNames = []string{"id", "teacher_id", "date", "time", "booked", "status",
	"visitor_type", "parent_name", "student_name", "company_name", "trainee_name", "representative_name",
	"class_name", "email", "message", "verification_token", "verification_sent_at", "verified_at",
	"confirmation_sent_at", "cancellation_sent_at", "updated_at"}

var testNow = time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func bookedRow(id, teacherID int64, status string, verifiedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(slotColumnNames).AddRow(id, teacherID, "2025-11-20", "16:00 - 16:15", true, status,
		"parent", "Anna Schulz", "Ben Schulz", nil, nil, nil,
		"10b", "anna@example.de", nil, "tok", testNow, verifiedAt,
		nil, nil, testNow)
}

func TestSlotRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM slots WHERE id = \?`).WithArgs(int64(5)).
		WillReturnRows(bookedRow(5, 1, "reserved", nil))
	s, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, s.Booked)
	assert.Equal(t, model.SlotReserved, *s.Status)
	assert.Equal(t, "Anna Schulz", *s.ParentName)
	assert.Nil(t, s.CompanyName)
	assert.Nil(t, s.VerifiedAt)
	assert.Equal(t, "tok", *s.VerificationToken)

	mock.ExpectQuery(`SELECT .+ FROM slots WHERE id = \?`).WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(slotColumnNames))
	_, err = repo.GetByID(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_Claim(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)
	token := "tok"
	parent, student := "Anna Schulz", "Ben Schulz"
	p := ClaimParams{
		SlotID: 5,
		Visitor: model.Visitor{Type: "parent", ParentName: &parent, StudentName: &student,
			ClassName: "10b", Email: "anna@example.de"},
		Status: model.SlotReserved,
		Token:  &token,
		Now:    testNow,
	}

	mock.ExpectExec(`UPDATE slots SET booked = 1, .+ WHERE id = \? AND booked = 0$`).
		WithArgs("reserved", "parent", "Anna Schulz", "Ben Schulz", nil, nil, nil, "10b", "anna@example.de", nil,
			"tok", sqlmock.AnyArg(), nil, testNow, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM slots WHERE id = \?`).WithArgs(int64(5)).
		WillReturnRows(bookedRow(5, 1, "reserved", nil))

	s, err := repo.Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_ClaimLost(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectExec(`UPDATE slots SET booked = 1, .+ WHERE id = \? AND booked = 0 AND teacher_id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Claim(context.Background(), ClaimParams{SlotID: 5, TeacherID: 2, Status: model.SlotConfirmed, Now: testNow})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_Confirm(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectExec(`UPDATE slots SET status = \?, updated_at = \? WHERE id = \? AND booked = 1 AND verified_at IS NOT NULL AND teacher_id = \?`).
		WithArgs("confirmed", testNow, int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Confirm(context.Background(), 5, 1, testNow))

	mock.ExpectExec(`UPDATE slots SET status = \?, updated_at = \? WHERE id = \? AND booked = 1 AND verified_at IS NOT NULL$`).
		WithArgs("confirmed", testNow, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Confirm(context.Background(), 5, 0, testNow), ErrSlotUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_MarkConfirmationSent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectExec(`UPDATE slots SET confirmation_sent_at = \? WHERE .+ confirmation_sent_at IS NULL`).
		WithArgs(testNow, int64(5), "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE slots SET confirmation_sent_at = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkConfirmationSent(context.Background(), 5, testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkConfirmationSent(context.Background(), 5, testNow)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_Cancel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM slots WHERE id = \? FOR UPDATE`).WithArgs(int64(5)).
		WillReturnRows(bookedRow(5, 1, "confirmed", testNow))
	mock.ExpectExec(`UPDATE slots SET booked = 0, status = NULL`).WithArgs(testNow, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	prev, err := repo.Cancel(context.Background(), 5, 1, testNow)
	require.NoError(t, err)
	assert.True(t, prev.Booked)
	assert.Equal(t, "anna@example.de", *prev.Email)
	require.NotNil(t, prev.VerifiedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_CancelForeignTeacher(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(5)).WillReturnRows(bookedRow(5, 1, "reserved", nil))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 5, 2, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectExec(`INSERT INTO slots`).WithArgs(int64(1), "2025-11-20", "16:00 - 16:15").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), 1, "2025-11-20", "16:00 - 16:15")
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_CreateMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectExec(`INSERT IGNORE INTO slots \(teacher_id, date, time, updated_at\) VALUES \(\?, \?, \?, UTC_TIMESTAMP\(\)\),\(\?, \?, \?, UTC_TIMESTAMP\(\)\)`).
		WithArgs(int64(1), "2025-11-20", "16:00 - 16:15", int64(1), "2025-11-20", "16:15 - 16:30").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.CreateMany(context.Background(), 1, "2025-11-20", []string{"16:00 - 16:15", "16:15 - 16:30"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CreateMany(context.Background(), 1, "2025-11-20", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepo_DeleteBooked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSlotRepo(db)

	mock.ExpectExec(`DELETE FROM slots WHERE id = \? AND booked = 0`).WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM slots WHERE id = \?`).WithArgs(int64(5)).
		WillReturnRows(bookedRow(5, 1, "reserved", nil))

	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrConflict)

	mock.ExpectExec(`DELETE FROM slots`).WithArgs(int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM slots WHERE id = \?`).WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(slotColumnNames))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRequestRepo_ResolveNotPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRequestRepo(db)
	slotID := int64(5)

	mock.ExpectExec(`UPDATE booking_requests SET status = \?, assigned_slot_id = \?, updated_at = \? WHERE id = \? AND teacher_id = \? AND status = \?`).
		WithArgs("accepted", int64(5), testNow, int64(3), int64(1), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), 3, 1, model.RequestAccepted, &slotID, testNow)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_GetDefaults(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepo(db)

	mock.ExpectQuery(`FROM settings WHERE id = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"event_date", "booking_opens_at", "booking_closes_at", "slot_minutes", "updated_at"}))

	s, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, s.SlotMinutes)
	assert.Nil(t, s.EventDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
