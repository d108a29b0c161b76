package worker

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"hallbook/internal/database"
	"hallbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeSheets struct {
	err         error
	appendCalls int
	statusCalls int
	lastStatus  string
}

func (f *fakeSheets) AppendBooking(ctx context.Context, b *models.Booking) error {
	f.appendCalls++
	return f.err
}

func (f *fakeSheets) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	f.statusCalls++
	f.lastStatus = status
	return f.err
}

type fakeMailer struct {
	err   error
	calls int
}

func (f *fakeMailer) SendBookingNotification(b *models.Booking) error {
	f.calls++
	return f.err
}

type fakeNotifier struct {
	err          error
	createdCalls int
	changedCalls int
}

func (f *fakeNotifier) BookingCreated(b *models.Booking) error {
	f.createdCalls++
	return f.err
}

func (f *fakeNotifier) BookingStatusChanged(b *models.Booking) error {
	f.changedCalls++
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.db")
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(path, &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newWorker(t *testing.T, db *database.DB, ch Channels, redisClient *redis.Client, retry RetryPolicy) *NotifyWorker {
	t.Helper()
	logger := zerolog.New(io.Discard)
	return NewNotifyWorker(db, ch, redisClient, retry, 0, 0, &logger)
}

func sampleBooking(id int64) *models.Booking {
	start, _ := models.ParseDate("2024-06-01")
	end, _ := models.ParseDate("2024-06-03")
	return &models.Booking{
		ID: id, Name: "Ada", Email: "ada@example.com", Phone: "+100",
		EventType: "wedding", StartDate: start, EndDate: end,
		GuestCount: 50, Status: models.StatusPending, CreatedAt: time.Now(),
	}
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id)
	if err := row.Scan(&status, &retryCount, &nextRetry); err != nil {
		t.Fatalf("scan task: %v", err)
	}
	return status, retryCount, nextRetry
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := newWorker(t, db, Channels{Sheets: sheets}, nil, RetryPolicy{})

	ctx := context.Background()
	if err := w.EnqueueTask(ctx, models.TaskSheetAppend, sampleBooking(1), ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if sheets.appendCalls != 1 {
		t.Fatalf("expected append call, got %d", sheets.appendCalls)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	w := newWorker(t, db, Channels{Sheets: sheets}, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})

	ctx := context.Background()
	if err := w.EnqueueTask(ctx, models.TaskSheetAppend, sampleBooking(2), ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "retry" {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{err: errors.New("smtp down")}
	w := newWorker(t, db, Channels{Mailer: mailer}, nil, RetryPolicy{MaxRetries: 1})

	ctx := context.Background()
	w.EnqueueTask(ctx, models.TaskEmailAdmin, sampleBooking(3), "")
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

func TestHandleTask(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	mailer := &fakeMailer{}
	notifier := &fakeNotifier{}
	w := newWorker(t, db, Channels{Sheets: sheets, Mailer: mailer, Notifier: notifier}, nil, RetryPolicy{MaxRetries: 3})

	ctx := context.Background()
	booking := sampleBooking(1)

	t.Run("SheetAppend", func(t *testing.T) {
		if err := w.handleTask(ctx, models.TaskSheetAppend, notifyTaskPayload{Booking: booking}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.appendCalls != 1 {
			t.Fatalf("expected 1 append call, got %d", sheets.appendCalls)
		}
	})

	t.Run("SheetStatus", func(t *testing.T) {
		if err := w.handleTask(ctx, models.TaskSheetStatus, notifyTaskPayload{BookingID: 1, Status: "approved"}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.statusCalls != 1 || sheets.lastStatus != "approved" {
			t.Fatalf("expected status call with approved, got %d %q", sheets.statusCalls, sheets.lastStatus)
		}
	})

	t.Run("EmailAdmin", func(t *testing.T) {
		if err := w.handleTask(ctx, models.TaskEmailAdmin, notifyTaskPayload{Booking: booking}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if mailer.calls != 1 {
			t.Fatalf("expected 1 mail call, got %d", mailer.calls)
		}
	})

	t.Run("TelegramCreated", func(t *testing.T) {
		if err := w.handleTask(ctx, models.TaskTelegramAdmin, notifyTaskPayload{Booking: booking}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if notifier.createdCalls != 1 {
			t.Fatalf("expected 1 created call, got %d", notifier.createdCalls)
		}
	})

	t.Run("TelegramStatusChanged", func(t *testing.T) {
		if err := w.handleTask(ctx, models.TaskTelegramAdmin, notifyTaskPayload{Booking: booking, Status: "rejected"}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if notifier.changedCalls != 1 {
			t.Fatalf("expected 1 changed call, got %d", notifier.changedCalls)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if err := w.handleTask(ctx, "bogus", notifyTaskPayload{Booking: booking}); err == nil {
			t.Fatalf("expected error for unknown task type")
		}
	})
}

// A task for a channel that is not configured completes instead of retrying.
func TestHandleTaskUnconfiguredChannel(t *testing.T) {
	db := newTestDB(t)
	w := newWorker(t, db, Channels{}, nil, RetryPolicy{MaxRetries: 3})

	ctx := context.Background()
	w.EnqueueTask(ctx, models.TaskEmailAdmin, sampleBooking(4), "")
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
}

func TestEnqueueTaskValidation(t *testing.T) {
	db := newTestDB(t)
	w := newWorker(t, db, Channels{}, nil, RetryPolicy{})
	ctx := context.Background()

	if err := w.EnqueueTask(ctx, "", sampleBooking(1), ""); err == nil {
		t.Fatalf("expected error for empty task type")
	}
	if err := w.EnqueueTask(ctx, models.TaskSheetAppend, nil, ""); err == nil {
		t.Fatalf("expected error for nil booking")
	}
	if err := w.EnqueueTask(ctx, models.TaskSheetAppend, &models.Booking{}, ""); err == nil {
		t.Fatalf("expected error for zero booking id")
	}
}

func TestEnqueueTaskSchedulesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := newWorker(t, db, Channels{Sheets: sheets}, client, RetryPolicy{})

	ctx := context.Background()
	if err := w.EnqueueTask(ctx, models.TaskSheetAppend, sampleBooking(5), ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, ok := w.tryLocalQueue(); ok {
		t.Fatalf("task should have gone to redis, not the local queue")
	}

	task, ok := w.tryRedis(ctx)
	if !ok {
		t.Fatalf("expected task from redis")
	}
	if task.TaskType != models.TaskSheetAppend {
		t.Fatalf("expected %s, got %s", models.TaskSheetAppend, task.TaskType)
	}

	w.processTask(ctx, &task)
	if sheets.appendCalls != 1 {
		t.Fatalf("expected append call, got %d", sheets.appendCalls)
	}
}

func TestDecodePayload(t *testing.T) {
	db := newTestDB(t)
	w := newWorker(t, db, Channels{}, nil, RetryPolicy{})

	decoded, err := w.decodePayload(`{"booking_id":123,"status":"approved"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.BookingID != 123 || decoded.Status != "approved" {
		t.Fatalf("unexpected decoded payload: %+v", decoded)
	}

	if _, err := w.decodePayload(`not json`); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	if d := policy.NextDelay(1); d != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d)
	}
	if d := policy.NextDelay(2); d != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d)
	}
	if d := policy.NextDelay(5); d != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d)
	}
}
