package core

import (
	"errors"
	"time"
)

// DateLayout is the canonical storage and form layout for expense dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID   int64
		Name string
	}

	// Expense is a single dated outflow owned by a user. CategoryName is
	// filled by queries that join the category directory.
	Expense struct {
		ID           int64
		UserID       int64
		CategoryID   int64
		CategoryName string
		Amount       Money
		Date         Date
		Note         string
		CreatedAt    time.Time
	}

	// ExpenseFields are the validated, user-editable columns of an expense.
	ExpenseFields struct {
		CategoryID int64
		Amount     Money
		Date       Date
		Note       string
	}
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (f ExpenseFields) Validate() error {
	if err := f.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if err := f.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if f.CategoryID <= 0 {
		return &ValidationError{Field: "category_id", Err: ErrInvalidCategory}
	}
	if len([]rune(f.Note)) > MaxNoteLength {
		return &ValidationError{Field: "note", Err: ErrNoteTooLong}
	}
	return nil
}

// Fields returns the editable columns of e.
func (e Expense) Fields() ExpenseFields {
	return ExpenseFields{
		CategoryID: e.CategoryID,
		Amount:     e.Amount,
		Date:       e.Date,
		Note:       e.Note,
	}
}
