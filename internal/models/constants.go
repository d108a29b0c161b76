package models

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the three booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Notification task types handled by the sync worker.
const (
	TaskSheetAppend   = "sheet_append"
	TaskSheetStatus   = "sheet_status"
	TaskEmailAdmin    = "email_admin"
	TaskTelegramAdmin = "telegram_admin"
)

const (
	// DefaultPageSize is the listing page size when the client sends none.
	DefaultPageSize = 10

	// MaxPageSize caps the listing page size regardless of what was asked.
	MaxPageSize = 100

	// WorkerQueueSize is the in-memory notification queue capacity.
	WorkerQueueSize = 128
)
