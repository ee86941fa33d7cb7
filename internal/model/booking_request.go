package model

import "time"

// RequestStatus tracks a booking request from submission to assignment.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// BookingRequest is a looser pre-slot request: the visitor names a teacher
// and a preferred time window, and the teacher later assigns a concrete
// slot to it.
type BookingRequest struct {
	ID                 int64         `json:"id"`
	TeacherID          int64         `json:"teacherId"`
	RequestedTime      string        `json:"requestedTime"`
	Status             RequestStatus `json:"status"`
	Visitor
	VerificationToken  *string    `json:"-"`
	VerificationSentAt *time.Time `json:"verificationSentAt"`
	VerifiedAt         *time.Time `json:"verifiedAt"`
	AssignedSlotID     *int64     `json:"assignedSlotId"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
