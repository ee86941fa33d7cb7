package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/utils"
)

// UserRepo provides access to login accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, password_hash, role, teacher_id, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u   model.User
		tid sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &tid, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.TeacherID = int64Ptr(tid)
	return &u, nil
}

func normalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Create hashes the password and inserts the account inside tx when given,
// or directly otherwise.
func (r *UserRepo) Create(ctx context.Context, tx *sql.Tx, username, password, role string, teacherID *int64, cost int) (int64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	const q = `INSERT INTO users (username, password_hash, role, teacher_id) VALUES (?, ?, ?, ?)`
	args := []any{normalizeUsername(username), hash, role, teacherID}
	var res sql.Result
	if tx != nil {
		res, err = tx.ExecContext(ctx, q, args...)
	} else {
		res, err = r.DB.ExecContext(ctx, q, args...)
	}
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

// GetByUsername fetches an account by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`, normalizeUsername(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// UpdatePassword stores a new bcrypt hash for the account.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	n, err := affected(r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, hash, id))
	if err != nil {
		return fmt.Errorf("update password %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
