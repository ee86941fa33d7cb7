package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

const slotColumns = `id, teacher_id, DATE_FORMAT(date, '%Y-%m-%d'), time, booked, status,
	visitor_type, parent_name, student_name, company_name, trainee_name, representative_name,
	class_name, email, message, verification_token, verification_sent_at, verified_at,
	confirmation_sent_at, cancellation_sent_at, updated_at`

// SlotRepo provides data access to the slots table. All timestamps are
// written in UTC.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to the provided database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// ClaimParams describes a conditional claim of an unbooked slot.
type ClaimParams struct {
	SlotID int64
	// TeacherID restricts the claim to slots of one teacher; zero allows any.
	TeacherID int64
	Visitor   model.Visitor
	Status    model.SlotStatus
	// Token is the verification token stored with the booking. When set,
	// verification_sent_at is stamped with Now.
	Token *string
	// VerifiedAt is copied onto the slot for bookings whose email was
	// verified earlier (assigned booking requests).
	VerifiedAt *time.Time
	Now        time.Time
}

func scanSlot(row rowScanner) (*model.Slot, error) {
	var (
		s                                            model.Slot
		status, visitorType, parentName, studentName sql.NullString
		companyName, traineeName, representativeName sql.NullString
		className, email, message, token             sql.NullString
		sentAt, verifiedAt, confirmedAt, cancelledAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.TeacherID, &s.Date, &s.Time, &s.Booked, &status,
		&visitorType, &parentName, &studentName, &companyName, &traineeName, &representativeName,
		&className, &email, &message, &token, &sentAt, &verifiedAt,
		&confirmedAt, &cancelledAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if status.Valid {
		st := model.SlotStatus(status.String)
		s.Status = &st
	}
	s.VisitorType = strPtr(visitorType)
	s.ParentName = strPtr(parentName)
	s.StudentName = strPtr(studentName)
	s.CompanyName = strPtr(companyName)
	s.TraineeName = strPtr(traineeName)
	s.RepresentativeName = strPtr(representativeName)
	s.ClassName = strPtr(className)
	s.Email = strPtr(email)
	s.Message = strPtr(message)
	s.VerificationToken = strPtr(token)
	s.VerificationSentAt = timePtr(sentAt)
	s.VerifiedAt = timePtr(verifiedAt)
	s.ConfirmationSentAt = timePtr(confirmedAt)
	s.CancellationSentAt = timePtr(cancelledAt)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *SlotRepo) list(ctx context.Context, where string, args ...any) ([]model.Slot, error) {
	q := `SELECT ` + slotColumns + ` FROM slots ` + where + ` ORDER BY date, time, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()
	slots := []model.Slot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

// ListByTeacher returns every slot of one teacher ordered by date and time.
func (r *SlotRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Slot, error) {
	return r.list(ctx, `WHERE teacher_id = ?`, teacherID)
}

// ListBookedByTeacher returns the booked slots of one teacher.
func (r *SlotRepo) ListBookedByTeacher(ctx context.Context, teacherID int64) ([]model.Slot, error) {
	return r.list(ctx, `WHERE teacher_id = ? AND booked = 1`, teacherID)
}

// ListAll returns every slot of every teacher.
func (r *SlotRepo) ListAll(ctx context.Context) ([]model.Slot, error) {
	return r.list(ctx, ``)
}

// GetByID fetches one slot. It returns ErrNotFound when no row exists.
func (r *SlotRepo) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id)
	s, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %d: %w", id, err)
	}
	return s, nil
}

// GetBookedByToken finds the booked slot carrying the verification token.
func (r *SlotRepo) GetBookedByToken(ctx context.Context, token string) (*model.Slot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE verification_token = ? AND booked = 1 LIMIT 1`, token)
	s, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot by token: %w", err)
	}
	return s, nil
}

// Claim books an unbooked slot in a single conditional UPDATE. When the
// row is already booked (or missing, or owned by another teacher) nothing
// is written and ErrSlotUnavailable is returned.
func (r *SlotRepo) Claim(ctx context.Context, p ClaimParams) (*model.Slot, error) {
	now := p.Now.UTC()
	var sentAt *time.Time
	if p.Token != nil {
		sentAt = &now
	}
	v := p.Visitor
	q := `UPDATE slots SET booked = 1, status = ?, visitor_type = ?, parent_name = ?, student_name = ?,
		company_name = ?, trainee_name = ?, representative_name = ?, class_name = ?, email = ?, message = ?,
		verification_token = ?, verification_sent_at = ?, verified_at = ?,
		confirmation_sent_at = NULL, cancellation_sent_at = NULL, updated_at = ?
		WHERE id = ? AND booked = 0`
	args := []any{string(p.Status), v.Type, v.ParentName, v.StudentName,
		v.CompanyName, v.TraineeName, v.RepresentativeName, v.ClassName, v.Email, v.Message,
		p.Token, sentAt, p.VerifiedAt, now, p.SlotID}
	if p.TeacherID != 0 {
		q += ` AND teacher_id = ?`
		args = append(args, p.TeacherID)
	}
	n, err := affected(r.db.ExecContext(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("claim slot %d: %w", p.SlotID, err)
	}
	if n == 0 {
		return nil, ErrSlotUnavailable
	}
	return r.GetByID(ctx, p.SlotID)
}

// MarkVerified stamps verified_at on the booked slot that still carries
// token. Calling it again overwrites the timestamp.
func (r *SlotRepo) MarkVerified(ctx context.Context, id int64, token string, at time.Time) error {
	n, err := affected(r.db.ExecContext(ctx,
		`UPDATE slots SET verified_at = ?, updated_at = ? WHERE id = ? AND verification_token = ? AND booked = 1`,
		at.UTC(), at.UTC(), id, token))
	if err != nil {
		return fmt.Errorf("verify slot %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Confirm sets status confirmed on a booked and verified slot. teacherID
// zero skips the ownership predicate.
func (r *SlotRepo) Confirm(ctx context.Context, id, teacherID int64, at time.Time) error {
	q := `UPDATE slots SET status = ?, updated_at = ? WHERE id = ? AND booked = 1 AND verified_at IS NOT NULL`
	args := []any{string(model.SlotConfirmed), at.UTC(), id}
	if teacherID != 0 {
		q += ` AND teacher_id = ?`
		args = append(args, teacherID)
	}
	n, err := affected(r.db.ExecContext(ctx, q, args...))
	if err != nil {
		return fmt.Errorf("confirm slot %d: %w", id, err)
	}
	if n == 0 {
		return ErrSlotUnavailable
	}
	return nil
}

// MarkConfirmationSent claims the right to send the confirmation mail of
// the current booking cycle. It returns false when the mail was already
// claimed or the slot is not both confirmed and verified.
func (r *SlotRepo) MarkConfirmationSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	n, err := affected(r.db.ExecContext(ctx,
		`UPDATE slots SET confirmation_sent_at = ? WHERE id = ? AND status = ? AND verified_at IS NOT NULL AND confirmation_sent_at IS NULL`,
		at.UTC(), id, string(model.SlotConfirmed)))
	if err != nil {
		return false, fmt.Errorf("mark confirmation sent %d: %w", id, err)
	}
	return n == 1, nil
}

// MarkCancellationSent records that the cancellation notice went out. The
// predicate keeps a new booking of the same slot untouched.
func (r *SlotRepo) MarkCancellationSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE slots SET cancellation_sent_at = ? WHERE id = ? AND booked = 0`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark cancellation sent %d: %w", id, err)
	}
	return nil
}

// Cancel resets a slot to the unbooked state and returns the row as it was
// before the reset. The row is locked with SELECT ... FOR UPDATE so the
// returned snapshot is exactly the booking that was removed. teacherID
// zero allows cancelling any slot; otherwise a slot of another teacher is
// reported as ErrNotFound.
func (r *SlotRepo) Cancel(ctx context.Context, id, teacherID int64, at time.Time) (*model.Slot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock slot %d: %w", id, err)
	}
	if teacherID != 0 && prev.TeacherID != teacherID {
		return nil, ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE slots SET booked = 0, status = NULL, visitor_type = NULL,
		parent_name = NULL, student_name = NULL, company_name = NULL, trainee_name = NULL,
		representative_name = NULL, class_name = NULL, email = NULL, message = NULL,
		verification_token = NULL, verification_sent_at = NULL, verified_at = NULL,
		confirmation_sent_at = NULL, cancellation_sent_at = NULL, updated_at = ?
		WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("reset slot %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}
	return prev, nil
}

// Create inserts one unbooked slot. A duplicate (teacher, date, time)
// yields ErrConflict.
func (r *SlotRepo) Create(ctx context.Context, teacherID int64, date, timeRange string) (*model.Slot, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO slots (teacher_id, date, time, updated_at) VALUES (?, ?, ?, UTC_TIMESTAMP())`,
		teacherID, date, timeRange)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert slot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// CreateMany inserts the given time ranges for one teacher and date,
// silently skipping ranges that already exist. It returns the number of
// rows inserted.
func (r *SlotRepo) CreateMany(ctx context.Context, teacherID int64, date string, times []string) (int, error) {
	if len(times) == 0 {
		return 0, nil
	}
	query := `INSERT IGNORE INTO slots (teacher_id, date, time, updated_at) VALUES `
	args := make([]any, 0, len(times)*3)
	for i, t := range times {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, UTC_TIMESTAMP())"
		args = append(args, teacherID, date, t)
	}
	n, err := affected(r.db.ExecContext(ctx, query, args...))
	if err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}
	return int(n), nil
}

// UpdateTime moves an unbooked slot to another date and time range.
func (r *SlotRepo) UpdateTime(ctx context.Context, id int64, date, timeRange string) (*model.Slot, error) {
	n, err := affected(r.db.ExecContext(ctx,
		`UPDATE slots SET date = ?, time = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND booked = 0`,
		date, timeRange, id))
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update slot %d: %w", id, err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.GetByID(ctx, id)
}

// Delete removes an unbooked slot. Booked slots must be cancelled first.
func (r *SlotRepo) Delete(ctx context.Context, id int64) error {
	n, err := affected(r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = ? AND booked = 0`, id))
	if err != nil {
		return fmt.Errorf("delete slot %d: %w", id, err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
