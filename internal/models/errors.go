package models

import "errors"

// Stable error taxonomy shared by repositories and services. Handlers map
// these to HTTP statuses; repositories translate storage-level constraint
// violations to ErrAlreadyExists so races never surface as internal errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("forbidden")
)

// StateError rejects an operation because of the current state of an event
// or ticket. Code is a stable machine-readable reason for the caller's UI.
type StateError struct {
	Code string
}

func (e *StateError) Error() string { return e.Code }

var (
	ErrPaymentRequired   = &StateError{Code: "PAYMENT_REQUIRED"}
	ErrEventCancelled    = &StateError{Code: "EVENT_CANCELLED"}
	ErrEventNotPublished = &StateError{Code: "EVENT_NOT_PUBLISHED"}
	ErrSalesNotStarted   = &StateError{Code: "SALES_NOT_STARTED"}
	ErrSalesEnded        = &StateError{Code: "SALES_ENDED"}
	ErrEventFull         = &StateError{Code: "EVENT_FULL"}
	ErrTicketUsed        = &StateError{Code: "TICKET_ALREADY_USED"}
	ErrTicketCancelled   = &StateError{Code: "TICKET_CANCELLED"}
	ErrTicketOtherEvent  = &StateError{Code: "TICKET_FOR_ANOTHER_EVENT"}
	ErrBadTransition     = &StateError{Code: "INVALID_STATUS_TRANSITION"}
)

// AsStateError unwraps err to a StateError if it is one.
func AsStateError(err error) (*StateError, bool) {
	var se *StateError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
