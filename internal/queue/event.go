// Package queue defines the slot lifecycle events exchanged over RabbitMQ,
// the best-effort publisher used by the booking services and the audit
// consumer that appends them to a log file.
package queue

import "time"

// Event types published for slot and booking request transitions.
const (
	EventSlotReserved    = "slot.reserved"
	EventSlotVerified    = "slot.verified"
	EventSlotConfirmed   = "slot.confirmed"
	EventSlotCancelled   = "slot.cancelled"
	EventRequestCreated  = "request.created"
	EventRequestAssigned = "request.assigned"
	EventRequestDeclined = "request.declined"
)

// SlotEvent describes one transition. It deliberately carries no visitor
// contact data.
type SlotEvent struct {
	Type       string    `json:"type"`
	SlotID     int64     `json:"slot_id,omitempty"`
	RequestID  int64     `json:"request_id,omitempty"`
	TeacherID  int64     `json:"teacher_id"`
	Status     string    `json:"status,omitempty"`
	Actor      string    `json:"actor,omitempty"` // visitor, teacher or admin
	OccurredAt time.Time `json:"occurred_at"`
}
