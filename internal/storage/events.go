package storage

import (
	"context"
	"time"
)

// ExpenseEvent is an audit record of a mutation, written by the events
// worker.
type ExpenseEvent struct {
	ID         string
	Type       string
	ExpenseID  int64
	UserID     int64
	OccurredAt time.Time
	ReceivedAt time.Time
}

// RecordExpenseEvent stores an audit event. Redelivered events with an id
// already recorded are ignored; recorded reports whether a row was written.
func (r *SQLiteRepository) RecordExpenseEvent(ctx context.Context, ev ExpenseEvent) (recorded bool, err error) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO expense_events (event_id, event_type, expense_id, user_id, occurred_at, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Type, ev.ExpenseID, ev.UserID, formatTimestamp(ev.OccurredAt), formatTimestamp(ev.ReceivedAt))
	if err != nil {
		return false, storageErr("record expense event", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("record expense event", err)
	}
	return n > 0, nil
}

// ListExpenseEvents returns the audit trail of one user, oldest first.
func (r *SQLiteRepository) ListExpenseEvents(ctx context.Context, userID int64, limit int) ([]ExpenseEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, event_type, expense_id, user_id, occurred_at, received_at
		 FROM expense_events
		 WHERE user_id = ?
		 ORDER BY occurred_at ASC, event_id ASC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, storageErr("list expense events", err)
	}
	defer rows.Close()

	var out []ExpenseEvent
	for rows.Next() {
		var (
			ev                 ExpenseEvent
			occurred, received string
		)
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.ExpenseID, &ev.UserID, &occurred, &received); err != nil {
			return nil, storageErr("scan expense event", err)
		}
		if ev.OccurredAt, err = parseTimestamp(occurred); err != nil {
			return nil, storageErr("scan expense event", err)
		}
		if ev.ReceivedAt, err = parseTimestamp(received); err != nil {
			return nil, storageErr("scan expense event", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expense events", err)
	}
	return out, nil
}
