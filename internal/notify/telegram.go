package notify

import (
	"fmt"
	"strings"

	"hallbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes short booking updates to the staff chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

func NewTelegramNotifier(botToken string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

func (n *TelegramNotifier) BookingCreated(booking *models.Booking) error {
	return n.send(createdMessage(booking))
}

func (n *TelegramNotifier) BookingStatusChanged(booking *models.Booking) error {
	return n.send(statusMessage(booking))
}

func createdMessage(booking *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New booking request #%d\n", booking.ID)
	fmt.Fprintf(&sb, "%s (%s)\n", booking.Name, booking.Phone)
	fmt.Fprintf(&sb, "%s, %d guests\n", booking.EventType, booking.GuestCount)
	fmt.Fprintf(&sb, "%s to %s", booking.StartDate, booking.EndDate)
	return sb.String()
}

func statusMessage(booking *models.Booking) string {
	return fmt.Sprintf("Booking #%d (%s, %s to %s) is now %s",
		booking.ID, booking.Name, booking.StartDate, booking.EndDate, booking.Status)
}

func (n *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
