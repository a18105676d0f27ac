package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expenso/internal/core"
	"expenso/internal/listing"
)

// UserExpenses is the expense repository for a single owner. Every
// statement below starts its WHERE clause with the owner condition.
type UserExpenses struct {
	db     *sql.DB
	userID int64
	now    func() time.Time
}

// UserID returns the owner this repository is scoped to.
func (u *UserExpenses) UserID() int64 {
	return u.userID
}

const expenseColumns = `e.expense_id, e.user_id, e.category_id, c.category_name,
	e.amount_cents, e.expense_date, e.note, e.created_at`

const expenseFrom = ` FROM expenses e JOIN categories c ON c.category_id = e.category_id`

// Create inserts a new expense and returns its id.
func (u *UserExpenses) Create(ctx context.Context, f core.ExpenseFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	res, err := u.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category_id, amount_cents, expense_date, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.userID, f.CategoryID, f.Amount.Cents, f.Date.String(), f.Note, formatTimestamp(u.now()))
	if err != nil {
		return 0, storageErr("insert expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert expense", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", id,
		"user_id", u.userID,
		"category_id", f.CategoryID,
		"amount_cents", f.Amount.Cents,
		"date", f.Date.String())

	return id, nil
}

// Get returns the expense only if it belongs to the owner.
func (u *UserExpenses) Get(ctx context.Context, expenseID int64) (core.Expense, error) {
	row := u.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+expenseFrom+` WHERE e.user_id = ? AND e.expense_id = ?`,
		u.userID, expenseID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, storageErr("get expense", err)
	}
	return e, nil
}

// Update rewrites the editable columns of one owned expense and returns
// the number of rows changed. Zero means not found or not permitted.
func (u *UserExpenses) Update(ctx context.Context, expenseID int64, f core.ExpenseFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	res, err := u.db.ExecContext(ctx,
		`UPDATE expenses SET category_id = ?, amount_cents = ?, expense_date = ?, note = ?
		 WHERE user_id = ? AND expense_id = ?`,
		f.CategoryID, f.Amount.Cents, f.Date.String(), f.Note, u.userID, expenseID)
	if err != nil {
		return 0, storageErr("update expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("update expense", err)
	}

	slog.InfoContext(ctx, "Expense updated",
		"expense_id", expenseID,
		"user_id", u.userID,
		"rows", n)

	return n, nil
}

// Delete removes one owned expense and returns the number of rows removed.
func (u *UserExpenses) Delete(ctx context.Context, expenseID int64) (int64, error) {
	res, err := u.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE user_id = ? AND expense_id = ?`, u.userID, expenseID)
	if err != nil {
		return 0, storageErr("delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete expense", err)
	}

	slog.InfoContext(ctx, "Expense deleted",
		"expense_id", expenseID,
		"user_id", u.userID,
		"rows", n)

	return n, nil
}

// ListRecent returns the newest expenses, by expense date then creation time.
func (u *UserExpenses) ListRecent(ctx context.Context, limit int) ([]core.Expense, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := u.db.QueryContext(ctx,
		`SELECT `+expenseColumns+expenseFrom+`
		 WHERE e.user_id = ?
		 ORDER BY e.expense_date DESC, e.created_at DESC, e.expense_id DESC
		 LIMIT ?`, u.userID, limit)
	if err != nil {
		return nil, storageErr("list recent expenses", err)
	}
	return collectExpenses(rows, "list recent expenses")
}

// ListFiltered returns one page of expenses matching q, with the count and
// sum over all matching rows. The three queries share one WHERE clause.
func (u *UserExpenses) ListFiltered(ctx context.Context, q listing.Query) (listing.Result, error) {
	filter, filterArgs := q.Where()
	where := ` WHERE e.user_id = ?` + filter
	args := append([]any{u.userID}, filterArgs...)

	result := listing.Result{Query: q}

	var total int64
	err := u.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(e.amount_cents), 0)`+expenseFrom+where, args...).
		Scan(&result.TotalCount, &total)
	if err != nil {
		return listing.Result{}, storageErr("count filtered expenses", err)
	}
	result.TotalAmount = core.Money{Cents: total}
	result.TotalPages = listing.TotalPages(result.TotalCount)

	if result.TotalCount == 0 || q.Offset() >= int(result.TotalCount) {
		return result, nil
	}

	pageArgs := append(args, q.Limit(), q.Offset())
	rows, err := u.db.QueryContext(ctx,
		`SELECT `+expenseColumns+expenseFrom+where+
			` ORDER BY `+q.OrderBy()+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return listing.Result{}, storageErr("list filtered expenses", err)
	}
	result.Rows, err = collectExpenses(rows, "list filtered expenses")
	if err != nil {
		return listing.Result{}, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		cents     int64
		date      string
		createdAt string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.CategoryName, &cents, &date, &e.Note, &createdAt); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense_date %q: %w", date, err)
	}
	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.Amount = core.Money{Cents: cents}
	e.Date = d
	e.CreatedAt = ts
	return e, nil
}

func collectExpenses(rows *sql.Rows, op string) ([]core.Expense, error) {
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}
