package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hallbook/internal/database"
	"hallbook/internal/domain"
	"hallbook/internal/events"
	"hallbook/internal/models"

	"github.com/rs/zerolog"
)

// BookingService orchestrates the booking lifecycle: validate, detect
// conflicts, persist, then notify collaborators best-effort.
type BookingService struct {
	repo             domain.Repository
	sessions         domain.SessionStore
	eventBus         domain.EventPublisher
	syncWorker       domain.SyncWorker
	recheckOnApprove bool
	logger           *zerolog.Logger
	now              func() time.Time
}

func NewBookingService(
	repo domain.Repository,
	sessions domain.SessionStore,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	recheckOnApprove bool,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:             repo,
		sessions:         sessions,
		eventBus:         eventBus,
		syncWorker:       syncWorker,
		recheckOnApprove: recheckOnApprove,
		logger:           logger,
		now:              time.Now,
	}
}

// Create admits a booking submission. Validation and the conflict check run
// before any write, so a rejected submission leaves no partial state. The
// bearer token is optional: invalid or expired tokens just leave the booking
// anonymous.
func (s *BookingService) Create(ctx context.Context, sub models.BookingSubmission, token string) (*models.Booking, error) {
	booking, verr := ValidateSubmission(sub)
	if verr != nil {
		return nil, verr
	}

	booking.UserID = s.resolveUserID(ctx, token)

	conflicts, err := s.repo.FindApprovedOverlapping(ctx, booking.Range(), 0)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, conflictError(conflicts)
	}

	booking.Status = models.StatusPending
	booking.CreatedAt = s.now()
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.publishEvent(events.EventBookingCreated, booking)
	s.enqueueTask(ctx, models.TaskSheetAppend, booking, "")
	s.enqueueTask(ctx, models.TaskEmailAdmin, booking, "")
	s.enqueueTask(ctx, models.TaskTelegramAdmin, booking, "")

	return booking, nil
}

// UpdateStatus overwrites a booking's status. Repeating the same transition
// succeeds; there is no "already approved" error. When recheckOnApprove is
// set, approving re-runs the conflict scan against the other approved
// bookings first.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Booking, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, newError(CodeMissingStatus, "Status is required")
	}
	if !models.ValidStatus(status) {
		return nil, newError(CodeInvalidStatus, "Status must be one of: pending, approved, rejected")
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if errors.Is(err, database.ErrBookingNotFound) {
		return nil, newError(CodeBookingNotFound, "Booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if s.recheckOnApprove && status == models.StatusApproved {
		conflicts, err := s.repo.FindApprovedOverlapping(ctx, booking.Range(), booking.ID)
		if err != nil {
			return nil, fmt.Errorf("approve recheck: %w", err)
		}
		if len(conflicts) > 0 {
			return nil, conflictError(conflicts)
		}
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, status); err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, newError(CodeBookingNotFound, "Booking not found")
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	booking.Status = status

	s.publishEvent(eventForStatus(status), booking)
	s.enqueueTask(ctx, models.TaskSheetStatus, booking, status)
	s.enqueueTask(ctx, models.TaskTelegramAdmin, booking, status)

	return booking, nil
}

// List returns bookings for the admin view. The page size is clamped to
// [1, 100] with a default of 10; a negative offset becomes 0.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	if filter.Limit <= 0 {
		filter.Limit = models.DefaultPageSize
	}
	if filter.Limit > models.MaxPageSize {
		filter.Limit = models.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if errors.Is(err, database.ErrBookingNotFound) {
		return nil, newError(CodeBookingNotFound, "Booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// ListMine returns the caller's bookings, newest first. Unlike Create, a
// missing, unknown or expired token is a hard failure here.
func (s *BookingService) ListMine(ctx context.Context, token string) ([]*models.Booking, error) {
	session, serr := s.resolveSession(ctx, token)
	if serr != nil {
		return nil, serr
	}
	bookings, err := s.repo.ListUserBookings(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bookings, nil
}

// RequireAdmin resolves the token and checks the admin capability. The admin
// gate goes through the same session resolution as everything else; there is
// no shared secret.
func (s *BookingService) RequireAdmin(ctx context.Context, token string) (*models.User, error) {
	session, serr := s.resolveSession(ctx, token)
	if serr != nil {
		return nil, serr
	}
	user, err := s.sessions.GetUser(ctx, session.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, newError(CodeUnauthorized, "Unauthorized")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsAdmin {
		return nil, newError(CodeForbidden, "Admin access required")
	}
	return user, nil
}

func (s *BookingService) resolveSession(ctx context.Context, token string) (*models.Session, *Error) {
	if token == "" {
		return nil, newError(CodeUnauthorized, "Unauthorized")
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if !errors.Is(err, database.ErrSessionNotFound) {
			s.logger.Error().Err(err).Msg("session lookup error")
		}
		return nil, newError(CodeUnauthorized, "Unauthorized")
	}
	if session.Expired(s.now()) {
		return nil, newError(CodeUnauthorized, "Unauthorized")
	}
	return session, nil
}

func (s *BookingService) resolveUserID(ctx context.Context, token string) *string {
	if token == "" {
		return nil
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil || session.Expired(s.now()) {
		return nil
	}
	return &session.UserID
}

func eventForStatus(status string) string {
	switch status {
	case models.StatusApproved:
		return events.EventBookingApproved
	case models.StatusRejected:
		return events.EventBookingRejected
	default:
		return events.EventBookingReopened
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		Name:      booking.Name,
		EventType: booking.EventType,
		StartDate: booking.StartDate,
		EndDate:   booking.EndDate,
		Status:    booking.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueTask(ctx context.Context, taskType string, booking *models.Booking, status string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("notification enqueue error")
	}
}
