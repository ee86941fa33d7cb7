package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

// BookingRequestRepo provides access to the booking_requests table.
type BookingRequestRepo struct {
	db *sql.DB
}

func NewBookingRequestRepo(db *sql.DB) *BookingRequestRepo { return &BookingRequestRepo{db: db} }

const requestColumns = `id, teacher_id, requested_time, status, visitor_type, parent_name, student_name,
	company_name, trainee_name, representative_name, class_name, email, message,
	verification_token, verification_sent_at, verified_at, assigned_slot_id, created_at, updated_at`

func scanRequest(row rowScanner) (*model.BookingRequest, error) {
	var (
		br                                       model.BookingRequest
		status                                   string
		parentName, studentName, companyName     sql.NullString
		traineeName, representativeName, message sql.NullString
		token                                    sql.NullString
		sentAt, verifiedAt                       sql.NullTime
		slotID                                   sql.NullInt64
	)
	err := row.Scan(&br.ID, &br.TeacherID, &br.RequestedTime, &status, &br.Type, &parentName, &studentName,
		&companyName, &traineeName, &representativeName, &br.ClassName, &br.Email, &message,
		&token, &sentAt, &verifiedAt, &slotID, &br.CreatedAt, &br.UpdatedAt)
	if err != nil {
		return nil, err
	}
	br.Status = model.RequestStatus(status)
	br.ParentName = strPtr(parentName)
	br.StudentName = strPtr(studentName)
	br.CompanyName = strPtr(companyName)
	br.TraineeName = strPtr(traineeName)
	br.RepresentativeName = strPtr(representativeName)
	br.Message = strPtr(message)
	br.VerificationToken = strPtr(token)
	br.VerificationSentAt = timePtr(sentAt)
	br.VerifiedAt = timePtr(verifiedAt)
	br.AssignedSlotID = int64Ptr(slotID)
	return &br, nil
}

// Create stores a pending request together with its verification token.
func (r *BookingRequestRepo) Create(ctx context.Context, teacherID int64, requestedTime string, v model.Visitor, token string, now time.Time) (*model.BookingRequest, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO booking_requests (teacher_id, requested_time, status, visitor_type, parent_name, student_name,
			company_name, trainee_name, representative_name, class_name, email, message,
			verification_token, verification_sent_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		teacherID, requestedTime, string(model.RequestPending), v.Type, v.ParentName, v.StudentName,
		v.CompanyName, v.TraineeName, v.RepresentativeName, v.ClassName, v.Email, v.Message,
		token, now.UTC(), now.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("insert booking request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *BookingRequestRepo) GetByID(ctx context.Context, id int64) (*model.BookingRequest, error) {
	br, err := scanRequest(r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking request %d: %w", id, err)
	}
	return br, nil
}

func (r *BookingRequestRepo) GetByToken(ctx context.Context, token string) (*model.BookingRequest, error) {
	br, err := scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE verification_token = ? LIMIT 1`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking request by token: %w", err)
	}
	return br, nil
}

// ListByTeacher returns the requests addressed to one teacher, newest first.
func (r *BookingRequestRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]model.BookingRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE teacher_id = ? ORDER BY created_at DESC, id DESC`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("query booking requests: %w", err)
	}
	defer rows.Close()
	out := []model.BookingRequest{}
	for rows.Next() {
		br, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking request: %w", err)
		}
		out = append(out, *br)
	}
	return out, rows.Err()
}

func (r *BookingRequestRepo) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	n, err := affected(r.db.ExecContext(ctx,
		`UPDATE booking_requests SET verified_at = ?, updated_at = ? WHERE id = ?`, at.UTC(), at.UTC(), id))
	if err != nil {
		return fmt.Errorf("verify booking request %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Resolve moves a pending request of teacherID to status. slotID is stored
// for accepted requests. It returns ErrConflict when the request is no
// longer pending.
func (r *BookingRequestRepo) Resolve(ctx context.Context, id, teacherID int64, status model.RequestStatus, slotID *int64, at time.Time) error {
	n, err := affected(r.db.ExecContext(ctx,
		`UPDATE booking_requests SET status = ?, assigned_slot_id = ?, updated_at = ?
		 WHERE id = ? AND teacher_id = ? AND status = ?`,
		string(status), slotID, at.UTC(), id, teacherID, string(model.RequestPending)))
	if err != nil {
		return fmt.Errorf("resolve booking request %d: %w", id, err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
