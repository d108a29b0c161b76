package service

import (
	"math"
	"regexp"
	"strings"

	"hallbook/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateSubmission normalizes a raw submission into a booking draft:
// strings trimmed, email lower-cased, dates parsed, guest count checked.
// Checks run in a fixed order and the first failure wins, so clients get
// deterministic error codes. The function is pure.
func ValidateSubmission(sub models.BookingSubmission) (*models.Booking, *Error) {
	name := strings.TrimSpace(sub.Name)
	if name == "" {
		return nil, newError(CodeMissingName, "Name is required")
	}

	email := strings.TrimSpace(sub.Email)
	if email == "" {
		return nil, newError(CodeMissingEmail, "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, newError(CodeInvalidEmail, "Invalid email format")
	}

	phone := strings.TrimSpace(sub.Phone)
	if phone == "" {
		return nil, newError(CodeMissingPhone, "Phone is required")
	}

	eventType := strings.TrimSpace(sub.EventType)
	if eventType == "" {
		return nil, newError(CodeMissingEventType, "Event type is required")
	}

	startRaw := strings.TrimSpace(sub.StartDate)
	if startRaw == "" {
		return nil, newError(CodeMissingStartDate, "Start date is required")
	}
	startDate, err := models.ParseDate(startRaw)
	if err != nil {
		return nil, newError(CodeInvalidStartDate, "Invalid start date format")
	}

	endRaw := strings.TrimSpace(sub.EndDate)
	if endRaw == "" {
		return nil, newError(CodeMissingEndDate, "End date is required")
	}
	endDate, err := models.ParseDate(endRaw)
	if err != nil {
		return nil, newError(CodeInvalidEndDate, "Invalid end date format")
	}

	if sub.GuestCount == nil || *sub.GuestCount != math.Trunc(*sub.GuestCount) {
		return nil, newError(CodeMissingGuestCount, "Guest count is required and must be an integer")
	}
	guestCount := int(*sub.GuestCount)
	if guestCount <= 0 {
		return nil, newError(CodeInvalidGuestCount, "Guest count must be a positive integer")
	}

	// Compared as dates, not strings.
	if endDate.Before(startDate.Time) {
		return nil, newError(CodeInvalidDateRange, "End date must be after or equal to start date")
	}

	var message *string
	if sub.Message != nil {
		trimmed := strings.TrimSpace(*sub.Message)
		if trimmed != "" {
			message = &trimmed
		}
	}

	return &models.Booking{
		Name:       name,
		Email:      strings.ToLower(email),
		Phone:      phone,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		GuestCount: guestCount,
		Message:    message,
	}, nil
}
