package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expenso/internal/amqp"
	"expenso/internal/core"
	"expenso/internal/listing"
	"expenso/internal/storage"
)

// EventPublisher announces expense mutations. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ChangeHook runs after a user's expenses changed.
type ChangeHook func(ctx context.Context, userID int64)

// ExpenseService orchestrates expense operations: validation, the scoped
// repository, then best-effort event publishing and change hooks.
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	hooks     []ChangeHook
	now       func() time.Time
}

// NewExpenseService builds the service. publisher may be nil, in which case
// no events are published.
func NewExpenseService(storage *storage.SQLiteRepository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
		now:       time.Now,
	}
}

// OnChange registers a hook called after every successful mutation.
func (s *ExpenseService) OnChange(hook ChangeHook) {
	s.hooks = append(s.hooks, hook)
}

// Categories returns the category directory ordered by name.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

// List returns one page of the user's expenses. Untrusted params are
// normalized, never rejected.
func (s *ExpenseService) List(ctx context.Context, userID int64, p listing.Params) (listing.Result, error) {
	q := listing.Normalize(p)
	res, err := s.storage.ForUser(userID).ListFiltered(ctx, q)
	if err != nil {
		return listing.Result{}, fmt.Errorf("list expenses: %w", err)
	}
	return res, nil
}

// Get returns one of the user's expenses or core.ErrNotFound.
func (s *ExpenseService) Get(ctx context.Context, userID, expenseID int64) (core.Expense, error) {
	return s.storage.ForUser(userID).Get(ctx, expenseID)
}

// Add validates in and stores a new expense for the user.
func (s *ExpenseService) Add(ctx context.Context, userID int64, in core.ExpenseInput) (int64, error) {
	fields, err := s.validate(ctx, in)
	if err != nil {
		return 0, err
	}

	id, err := s.storage.ForUser(userID).Create(ctx, fields)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}

	s.changed(ctx, amqp.EventCreated, userID, id)
	return id, nil
}

// Update replaces the editable fields of one of the user's expenses.
// core.ErrNotFound is returned when no owned row matched.
func (s *ExpenseService) Update(ctx context.Context, userID, expenseID int64, in core.ExpenseInput) error {
	fields, err := s.validate(ctx, in)
	if err != nil {
		return err
	}

	n, err := s.storage.ForUser(userID).Update(ctx, expenseID, fields)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	s.changed(ctx, amqp.EventUpdated, userID, expenseID)
	return nil
}

// Remove permanently deletes one of the user's expenses.
func (s *ExpenseService) Remove(ctx context.Context, userID, expenseID int64) error {
	n, err := s.storage.ForUser(userID).Delete(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("remove expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	s.changed(ctx, amqp.EventDeleted, userID, expenseID)
	return nil
}

// validate runs form validation, then checks the category exists so an
// unknown id is reported as bad input rather than a storage failure.
func (s *ExpenseService) validate(ctx context.Context, in core.ExpenseInput) (core.ExpenseFields, error) {
	fields, err := in.Validate()
	if err != nil {
		return core.ExpenseFields{}, err
	}
	if _, err := s.storage.GetCategory(ctx, fields.CategoryID); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return core.ExpenseFields{}, &core.ValidationError{Field: "category_id", Err: core.ErrInvalidCategory}
		}
		return core.ExpenseFields{}, fmt.Errorf("check category: %w", err)
	}
	return fields, nil
}

func (s *ExpenseService) changed(ctx context.Context, typ amqp.EventType, userID, expenseID int64) {
	for _, hook := range s.hooks {
		hook(ctx, userID)
	}

	if s.publisher == nil {
		return
	}
	ev := amqp.NewExpenseEvent(typ, expenseID, userID, s.now())
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"event_type", typ,
			"expense_id", expenseID,
			"user_id", userID,
			"error", err)
	}
}
