package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a change to an expense.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// MessageVersion is bumped whenever ExpenseEvent changes shape.
const MessageVersion = 1

// ExpenseEvent announces that an expense changed. It carries identifiers
// only; consumers read the current row from the database when they need it.
type ExpenseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ExpenseID  int64     `json:"expense_id"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    int       `json:"version"`
}

var ErrInvalidEvent = errors.New("invalid expense event")

func NewExpenseEvent(typ EventType, expenseID, userID int64, at time.Time) *ExpenseEvent {
	return &ExpenseEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		ExpenseID:  expenseID,
		UserID:     userID,
		OccurredAt: at.UTC(),
		Version:    MessageVersion,
	}
}

// RoutingKey is the topic key the event is published under.
func (e *ExpenseEvent) RoutingKey() string {
	return "expense." + string(e.Type)
}

func (e *ExpenseEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("%w: id: %v", ErrInvalidEvent, err)
	}
	if e.ExpenseID <= 0 || e.UserID <= 0 {
		return fmt.Errorf("%w: missing expense or user id", ErrInvalidEvent)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and validates a message body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
