package models

import "time"

type Booking struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	EventType  string    `json:"eventType"`
	StartDate  Date      `json:"startDate"`
	EndDate    Date      `json:"endDate"`
	GuestCount int       `json:"guestCount"`
	Message    *string   `json:"message"`
	Status     string    `json:"status"` // pending, approved, rejected
	UserID     *string   `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Range returns the booked date span.
func (b *Booking) Range() DateRange {
	return DateRange{StartDate: b.StartDate, EndDate: b.EndDate}
}

// BookingSubmission is the raw client payload before validation. GuestCount is
// a float pointer so that a missing field, a non-numeric value and a
// non-integer number can be told apart.
type BookingSubmission struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	EventType  string   `json:"eventType"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	GuestCount *float64 `json:"guestCount"`
	Message    *string  `json:"message"`
}

// BookingFilter narrows and pages the admin listing.
type BookingFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}
