package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

// SettingsRepo reads and writes the single settings row (id = 1).
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns the event settings. A missing row yields defaults.
func (r *SettingsRepo) Get(ctx context.Context) (model.Settings, error) {
	var (
		s         model.Settings
		eventDate sql.NullString
		opens     sql.NullTime
		closes    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT DATE_FORMAT(event_date, '%Y-%m-%d'), booking_opens_at, booking_closes_at, slot_minutes, updated_at
		 FROM settings WHERE id = 1`).Scan(&eventDate, &opens, &closes, &s.SlotMinutes, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{SlotMinutes: 15}, nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s.EventDate = strPtr(eventDate)
	s.BookingOpensAt = timePtr(opens)
	s.BookingClosesAt = timePtr(closes)
	return s, nil
}

// Save upserts the settings row.
func (r *SettingsRepo) Save(ctx context.Context, s model.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, event_date, booking_opens_at, booking_closes_at, slot_minutes)
		 VALUES (1, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE event_date = VALUES(event_date), booking_opens_at = VALUES(booking_opens_at),
		 booking_closes_at = VALUES(booking_closes_at), slot_minutes = VALUES(slot_minutes)`,
		s.EventDate, s.BookingOpensAt, s.BookingClosesAt, s.SlotMinutes)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
