package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

// FeedbackRepo stores anonymous feedback. Rows carry no author.
type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

func (r *FeedbackRepo) Create(ctx context.Context, message string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO feedback (message) VALUES (?)`, message)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return res.LastInsertId()
}

func (r *FeedbackRepo) List(ctx context.Context) ([]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, message, created_at FROM feedback ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()
	out := []model.Feedback{}
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
