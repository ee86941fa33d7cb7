package model

// Teaching systems. The system decides the time window in which slots are
// generated for a teacher.
const (
	SystemDual     = "dual"
	SystemVollzeit = "vollzeit"
)

// Teacher mirrors the `teachers` table.
type Teacher struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Subject string  `json:"subject"`
	Room    string  `json:"room"`
	System  string  `json:"system"`
	Email   *string `json:"email,omitempty"`
}

// ValidSystem reports whether s is a known teaching system.
func ValidSystem(s string) bool { return s == SystemDual || s == SystemVollzeit }
