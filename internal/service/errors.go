package service

import "net/http"

// ValidationError reports malformed or missing input. Fields maps the JSON
// name of each offending field to a readable message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports a lost race or an unmet precondition, such as a
// slot that is already booked.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError reports a token, slot or teacher that does not exist or
// does not belong to the caller.
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// AuthError reports missing credentials (401) or insufficient rights (403).
type AuthError struct {
	Message   string
	Forbidden bool
}

func (e *AuthError) Error() string { return e.Message }

// Status returns the HTTP status for the error.
func (e *AuthError) Status() int {
	if e.Forbidden {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// User-facing messages.
const (
	MsgInvalidInput     = "Ungültige Eingabe"
	MsgSlotUnavailable  = "Dieser Termin ist bereits vergeben oder existiert nicht"
	MsgInvalidLink      = "Ungültiger oder abgelaufener Link"
	MsgSlotNotFound     = "Termin nicht gefunden"
	MsgNotVerified      = "Der Termin kann erst nach Bestätigung der E-Mail-Adresse angenommen werden"
	MsgBookingClosed    = "Buchungen sind derzeit nicht möglich"
	MsgTeacherNotFound  = "Lehrkraft nicht gefunden"
	MsgRequestNotFound  = "Anfrage nicht gefunden"
	MsgRequestResolved  = "Die Anfrage wurde bereits bearbeitet"
	MsgSlotStateChanged = "Der Termin wurde zwischenzeitlich geändert"
)

func invalid(fields map[string]string) *ValidationError {
	return &ValidationError{Message: MsgInvalidInput, Fields: fields}
}
