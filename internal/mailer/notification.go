package mailer

import (
	"fmt"
	"html"
	"strings"

	"hallbook/internal/models"
)

// renderBookingNotification builds the admin email for a new booking request.
func renderBookingNotification(b *models.Booking) (subject, text, htmlBody string) {
	subject = fmt.Sprintf("New Booking Request #%d - %s", b.ID, b.EventType)

	var sb strings.Builder
	fmt.Fprintf(&sb, "A new booking request has been submitted.\n\n")
	fmt.Fprintf(&sb, "Booking ID: #%d\n", b.ID)
	fmt.Fprintf(&sb, "Client Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "Email: %s\n", b.Email)
	fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	fmt.Fprintf(&sb, "Event Type: %s\n", b.EventType)
	fmt.Fprintf(&sb, "Event Dates: %s to %s\n", b.StartDate, b.EndDate)
	fmt.Fprintf(&sb, "Expected Guests: %d guests\n", b.GuestCount)
	if b.Message != nil {
		fmt.Fprintf(&sb, "Additional Requirements: %s\n", *b.Message)
	}
	sb.WriteString("\nContact the client to discuss pricing and confirm the booking.\n")
	text = sb.String()

	var hb strings.Builder
	hb.WriteString(`<html><body style="font-family: Arial, sans-serif; color: #333;">`)
	hb.WriteString(`<h1>New Booking Request</h1>`)
	hb.WriteString(`<p>A new booking request has been submitted. Please review the details below:</p><table>`)
	htmlRow(&hb, "Booking ID", fmt.Sprintf("#%d", b.ID))
	htmlRow(&hb, "Client Name", b.Name)
	htmlRow(&hb, "Email", b.Email)
	htmlRow(&hb, "Phone", b.Phone)
	htmlRow(&hb, "Event Type", b.EventType)
	htmlRow(&hb, "Event Dates", fmt.Sprintf("%s to %s", b.StartDate, b.EndDate))
	htmlRow(&hb, "Expected Guests", fmt.Sprintf("%d guests", b.GuestCount))
	if b.Message != nil {
		htmlRow(&hb, "Additional Requirements", *b.Message)
	}
	hb.WriteString(`</table>`)
	hb.WriteString(`<p><strong>Next Steps:</strong> contact the client to discuss pricing and confirm the booking.</p>`)
	hb.WriteString(`<p style="color: #666; font-size: 12px;">This is an automated notification from the booking system.</p>`)
	hb.WriteString(`</body></html>`)
	htmlBody = hb.String()

	return subject, text, htmlBody
}

func htmlRow(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, `<tr><td style="font-weight: bold; color: #666; padding: 6px;">%s</td><td style="padding: 6px;">%s</td></tr>`,
		html.EscapeString(label), html.EscapeString(value))
}
