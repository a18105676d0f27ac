package core

import (
	"strconv"
	"strings"
	"time"
)

// MaxNoteLength bounds the free-text note, in characters.
const MaxNoteLength = 500

// ExpenseInput is the raw add/edit form. All fields are untrusted strings.
type ExpenseInput struct {
	Amount     string
	CategoryID string
	Date       string
	Note       string
}

// Validate checks the input and converts it to ExpenseFields.
//
// Presence of amount, category and date is checked first as a group; only
// then are amount, date and category parsed, in that order.
func (in ExpenseInput) Validate() (ExpenseFields, error) {
	amount := strings.TrimSpace(in.Amount)
	category := strings.TrimSpace(in.CategoryID)
	date := strings.TrimSpace(in.Date)

	if amount == "" || category == "" || date == "" {
		return ExpenseFields{}, &ValidationError{Field: missingField(amount, category, date), Err: ErrMissingField}
	}

	cents, err := ParseDecimalToCents(amount)
	if err != nil {
		return ExpenseFields{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}

	d, err := ParseDate(date)
	if err != nil {
		return ExpenseFields{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}

	categoryID, err := strconv.ParseInt(category, 10, 64)
	if err != nil || categoryID <= 0 {
		return ExpenseFields{}, &ValidationError{Field: "category_id", Err: ErrInvalidCategory}
	}

	fields := ExpenseFields{
		CategoryID: categoryID,
		Amount:     Money{Cents: cents},
		Date:       d,
		Note:       in.Note,
	}
	if err := fields.Validate(); err != nil {
		return ExpenseFields{}, err
	}
	return fields, nil
}

func missingField(amount, category, date string) string {
	switch {
	case amount == "":
		return "amount"
	case category == "":
		return "category_id"
	default:
		return "date"
	}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping only the
// calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// InputFromExpense prefills an edit form.
func InputFromExpense(e Expense) ExpenseInput {
	return ExpenseInput{
		Amount:     e.Amount.String(),
		CategoryID: strconv.FormatInt(e.CategoryID, 10),
		Date:       e.Date.String(),
		Note:       e.Note,
	}
}
