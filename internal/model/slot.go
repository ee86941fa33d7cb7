package model

import "time"

// SlotStatus is the booking state of a slot. An unbooked slot carries no
// status at all (NULL in the database).
type SlotStatus string

const (
	SlotReserved  SlotStatus = "reserved"
	SlotConfirmed SlotStatus = "confirmed"
)

// Visitor types accepted by the booking form.
const (
	VisitorParent  = "parent"
	VisitorCompany = "company"
)

// Visitor groups the contact data a visitor submits for a booking. Only the
// name fields that belong to the visitor type are set; the others stay nil.
type Visitor struct {
	Type               string  `json:"visitorType"`
	ParentName         *string `json:"parentName"`
	StudentName        *string `json:"studentName"`
	CompanyName        *string `json:"companyName"`
	TraineeName        *string `json:"traineeName"`
	RepresentativeName *string `json:"representativeName"`
	ClassName          string  `json:"className"`
	Email              string  `json:"email"`
	Message            *string `json:"message"`
}

// DisplayName returns the name used to address the visitor in mails.
func (v Visitor) DisplayName() string {
	switch {
	case v.Type == VisitorCompany && v.RepresentativeName != nil:
		return *v.RepresentativeName
	case v.Type == VisitorCompany && v.CompanyName != nil:
		return *v.CompanyName
	case v.ParentName != nil:
		return *v.ParentName
	}
	return ""
}

// Slot mirrors a row of the `slots` table: one bookable time window of one
// teacher on one date. Booked is true exactly when Status is non-nil.
type Slot struct {
	ID                 int64       `json:"id"`
	TeacherID          int64       `json:"teacherId"`
	Date               string      `json:"date"` // YYYY-MM-DD
	Time               string      `json:"time"` // "HH:MM - HH:MM"
	Booked             bool        `json:"booked"`
	Status             *SlotStatus `json:"status"`
	VisitorType        *string     `json:"visitorType"`
	ParentName         *string     `json:"parentName"`
	StudentName        *string     `json:"studentName"`
	CompanyName        *string     `json:"companyName"`
	TraineeName        *string     `json:"traineeName"`
	RepresentativeName *string     `json:"representativeName"`
	ClassName          *string     `json:"className"`
	Email              *string     `json:"email"`
	Message            *string     `json:"message"`
	VerificationToken  *string     `json:"-"`
	VerificationSentAt *time.Time  `json:"verificationSentAt"`
	VerifiedAt         *time.Time  `json:"verifiedAt"`
	ConfirmationSentAt *time.Time  `json:"confirmationSentAt"`
	CancellationSentAt *time.Time  `json:"cancellationSentAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// IsConfirmed reports whether the teacher has accepted the booking.
func (s Slot) IsConfirmed() bool { return s.Status != nil && *s.Status == SlotConfirmed }

// Visitor rebuilds the visitor data stored on a booked slot.
func (s Slot) Visitor() Visitor {
	v := Visitor{
		ParentName:         s.ParentName,
		StudentName:        s.StudentName,
		CompanyName:        s.CompanyName,
		TraineeName:        s.TraineeName,
		RepresentativeName: s.RepresentativeName,
		Message:            s.Message,
	}
	if s.VisitorType != nil {
		v.Type = *s.VisitorType
	}
	if s.ClassName != nil {
		v.ClassName = *s.ClassName
	}
	if s.Email != nil {
		v.Email = *s.Email
	}
	return v
}

// PublicSlot is the availability view served to anonymous visitors. It
// never contains visitor data.
type PublicSlot struct {
	ID        int64  `json:"id"`
	TeacherID int64  `json:"teacherId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Booked    bool   `json:"booked"`
}

// Public strips everything but availability from the slot.
func (s Slot) Public() PublicSlot {
	return PublicSlot{ID: s.ID, TeacherID: s.TeacherID, Date: s.Date, Time: s.Time, Booked: s.Booked}
}
