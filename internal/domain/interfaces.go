package domain

import (
	"context"
	"time"

	"hallbook/internal/models"
)

type Repository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]*models.Booking, error)
	FindApprovedOverlapping(ctx context.Context, r models.DateRange, excludeID int64) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
}

// SessionStore resolves externally issued bearer credentials. Session
// issuance itself lives outside this service.
type SessionStore interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts best-effort notification tasks. Enqueue failures are the
// caller's to log; they never abort the booking operation.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking, status string) error
}

// SheetsWriter mirrors bookings into the staff spreadsheet.
type SheetsWriter interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

// Mailer delivers the admin notification for a new booking.
type Mailer interface {
	SendBookingNotification(booking *models.Booking) error
}

// Notifier pushes short booking updates to the staff chat.
type Notifier interface {
	BookingCreated(booking *models.Booking) error
	BookingStatusChanged(booking *models.Booking) error
}

// RateLimitStore counts requests per client key within a rolling window.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	Create(ctx context.Context, sub models.BookingSubmission, token string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	Get(ctx context.Context, id int64) (*models.Booking, error)
	ListMine(ctx context.Context, token string) ([]*models.Booking, error)
	RequireAdmin(ctx context.Context, token string) (*models.User, error)
}
