package model

import "time"

// Settings is the single row of event-wide configuration edited by admins.
type Settings struct {
	EventDate       *string    `json:"eventDate"` // YYYY-MM-DD
	BookingOpensAt  *time.Time `json:"bookingOpensAt"`
	BookingClosesAt *time.Time `json:"bookingClosesAt"`
	SlotMinutes     int        `json:"slotMinutes"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// BookingOpen reports whether now lies inside the configured booking
// window. Unset bounds do not restrict.
func (s Settings) BookingOpen(now time.Time) bool {
	if s.BookingOpensAt != nil && now.Before(*s.BookingOpensAt) {
		return false
	}
	if s.BookingClosesAt != nil && !now.Before(*s.BookingClosesAt) {
		return false
	}
	return true
}

// Feedback is an anonymous free-text note left by a teacher.
type Feedback struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
