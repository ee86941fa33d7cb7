package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

// TeacherRepo provides access to the teachers table.
type TeacherRepo struct {
	db *sql.DB
}

func NewTeacherRepo(db *sql.DB) *TeacherRepo { return &TeacherRepo{db: db} }

const teacherColumns = "id, name, subject, room, `system`, email"

func scanTeacher(row rowScanner) (*model.Teacher, error) {
	var (
		t     model.Teacher
		email sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.Room, &t.System, &email); err != nil {
		return nil, err
	}
	t.Email = strPtr(email)
	return &t, nil
}

// List returns all teachers ordered by name.
func (r *TeacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+teacherColumns+` FROM teachers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query teachers: %w", err)
	}
	defer rows.Close()
	teachers := []model.Teacher{}
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, *t)
	}
	return teachers, rows.Err()
}

// GetByID fetches one teacher or ErrNotFound.
func (r *TeacherRepo) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	t, err := scanTeacher(r.db.QueryRowContext(ctx, `SELECT `+teacherColumns+` FROM teachers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher %d: %w", id, err)
	}
	return t, nil
}

// Create inserts a teacher and returns it with its new id.
func (r *TeacherRepo) Create(ctx context.Context, t model.Teacher) (*model.Teacher, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO teachers (name, subject, room, `system`, email) VALUES (?, ?, ?, ?, ?)",
		t.Name, t.Subject, t.Room, t.System, t.Email)
	if err != nil {
		return nil, fmt.Errorf("insert teacher: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}

// CreateTx is Create inside a caller-managed transaction.
func (r *TeacherRepo) CreateTx(ctx context.Context, tx *sql.Tx, t model.Teacher) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO teachers (name, subject, room, `system`, email) VALUES (?, ?, ?, ?, ?)",
		t.Name, t.Subject, t.Room, t.System, t.Email)
	if err != nil {
		return 0, fmt.Errorf("insert teacher: %w", err)
	}
	return res.LastInsertId()
}

// Update overwrites the editable teacher columns.
func (r *TeacherRepo) Update(ctx context.Context, t model.Teacher) (*model.Teacher, error) {
	n, err := affected(r.db.ExecContext(ctx,
		"UPDATE teachers SET name = ?, subject = ?, room = ?, `system` = ?, email = ? WHERE id = ?",
		t.Name, t.Subject, t.Room, t.System, t.Email, t.ID))
	if err != nil {
		return nil, fmt.Errorf("update teacher %d: %w", t.ID, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return &t, nil
}

// UpdateRoom changes only the room of a teacher.
func (r *TeacherRepo) UpdateRoom(ctx context.Context, id int64, room string) error {
	n, err := affected(r.db.ExecContext(ctx, `UPDATE teachers SET room = ? WHERE id = ?`, room, id))
	if err != nil {
		return fmt.Errorf("update room %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a teacher. Slots, requests and the login account go with
// it through ON DELETE CASCADE.
func (r *TeacherRepo) Delete(ctx context.Context, id int64) error {
	n, err := affected(r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = ?`, id))
	if err != nil {
		return fmt.Errorf("delete teacher %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BeginTx starts a transaction for multi-table writes such as creating a
// teacher together with its login account.
func (r *TeacherRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
