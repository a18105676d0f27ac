package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expenso/internal/amqp"
	"expenso/internal/storage"
)

// EventStore persists audit records. *storage.SQLiteRepository implements it.
type EventStore interface {
	RecordExpenseEvent(ctx context.Context, ev storage.ExpenseEvent) (bool, error)
}

// AuditWorker writes every consumed expense event to the audit trail.
type AuditWorker struct {
	store EventStore
	now   func() time.Time
}

func NewAuditWorker(store EventStore) *AuditWorker {
	return &AuditWorker{store: store, now: time.Now}
}

// HandleExpenseEvent records ev. Duplicate deliveries are acknowledged
// without writing a second row; storage failures are returned so the
// delivery is requeued.
func (w *AuditWorker) HandleExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	recorded, err := w.store.RecordExpenseEvent(ctx, storage.ExpenseEvent{
		ID:         ev.ID,
		Type:       string(ev.Type),
		ExpenseID:  ev.ExpenseID,
		UserID:     ev.UserID,
		OccurredAt: ev.OccurredAt,
		ReceivedAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("record expense event: %w", err)
	}

	if !recorded {
		slog.InfoContext(ctx, "Duplicate expense event ignored", "event_id", ev.ID)
		return nil
	}
	slog.InfoContext(ctx, "Expense event recorded",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"expense_id", ev.ExpenseID,
		"user_id", ev.UserID)
	return nil
}

// Consumer delivers events to a handler until ctx ends. *amqp.Client
// implements it.
type Consumer interface {
	ConsumeExpenseEvents(ctx context.Context, handler amqp.Handler) error
}

// Run consumes events until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, c Consumer) error {
	slog.InfoContext(ctx, "Audit worker started")
	err := c.ConsumeExpenseEvents(ctx, w.HandleExpenseEvent)
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "Audit worker stopped")
		return nil
	}
	return err
}
