package notify

import (
	"testing"

	"hallbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func testBooking() *models.Booking {
	start, _ := models.ParseDate("2024-06-01")
	end, _ := models.ParseDate("2024-06-03")
	return &models.Booking{
		ID: 42, Name: "Ada", Phone: "+1-555-0100", EventType: "wedding",
		StartDate: start, EndDate: end, GuestCount: 120,
		Status: models.StatusApproved,
	}
}

func TestCreatedMessage(t *testing.T) {
	text := createdMessage(testBooking())
	assert.Contains(t, text, "New booking request #42")
	assert.Contains(t, text, "Ada (+1-555-0100)")
	assert.Contains(t, text, "wedding, 120 guests")
	assert.Contains(t, text, "2024-06-01 to 2024-06-03")
}

func TestStatusMessage(t *testing.T) {
	text := statusMessage(testBooking())
	assert.Equal(t, "Booking #42 (Ada, 2024-06-01 to 2024-06-03) is now approved", text)
}
