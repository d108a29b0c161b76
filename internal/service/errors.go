package service

import "hallbook/internal/models"

// Stable error codes clients match on. The ordering of validation checks is
// part of the contract: the first failing check wins.
const (
	CodeMissingName       = "MISSING_NAME"
	CodeMissingEmail      = "MISSING_EMAIL"
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeMissingPhone      = "MISSING_PHONE"
	CodeMissingEventType  = "MISSING_EVENT_TYPE"
	CodeMissingStartDate  = "MISSING_START_DATE"
	CodeInvalidStartDate  = "INVALID_START_DATE"
	CodeMissingEndDate    = "MISSING_END_DATE"
	CodeInvalidEndDate    = "INVALID_END_DATE"
	CodeMissingGuestCount = "MISSING_GUEST_COUNT"
	CodeInvalidGuestCount = "INVALID_GUEST_COUNT"
	CodeInvalidDateRange  = "INVALID_DATE_RANGE"
	CodeDateConflict      = "DATE_CONFLICT"
	CodeBookingNotFound   = "BOOKING_NOT_FOUND"
	CodeMissingStatus     = "MISSING_STATUS"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidID         = "INVALID_ID"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
)

// Error is a domain failure with a stable code. ConflictingDates is set only
// for DATE_CONFLICT so the client can present alternatives.
type Error struct {
	Code             string             `json:"code"`
	Message          string             `json:"error"`
	ConflictingDates []models.DateRange `json:"conflictingDates,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func conflictError(conflicts []*models.Booking) *Error {
	ranges := make([]models.DateRange, 0, len(conflicts))
	for _, b := range conflicts {
		ranges = append(ranges, b.Range())
	}
	return &Error{
		Code:             CodeDateConflict,
		Message:          "The selected dates are already booked. Please choose different dates.",
		ConflictingDates: ranges,
	}
}
