package mailer

import (
	"hallbook/internal/models"

	"github.com/rs/zerolog"
)

// DevMailer logs notifications instead of sending them. Used when SMTP is
// not configured, so local runs still show what would have gone out.
type DevMailer struct {
	logger zerolog.Logger
}

func NewDevMailer(logger *zerolog.Logger) *DevMailer {
	return &DevMailer{logger: logger.With().Str("component", "dev_mailer").Logger()}
}

func (d *DevMailer) SendBookingNotification(booking *models.Booking) error {
	subject, text, _ := renderBookingNotification(booking)
	d.logger.Info().
		Int64("booking_id", booking.ID).
		Str("subject", subject).
		Msg("dev mailer: notification suppressed")
	d.logger.Debug().Str("body", text).Msg("dev mailer: body")
	return nil
}
