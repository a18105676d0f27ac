package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenso/internal/core"
)

// TotalAndCount returns the sum and number of all the owner's expenses.
func (u *UserExpenses) TotalAndCount(ctx context.Context) (core.Money, int64, error) {
	var total, count int64
	err := u.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM expenses WHERE user_id = ?`,
		u.userID).Scan(&total, &count)
	if err != nil {
		return core.Money{}, 0, storageErr("total and count", err)
	}
	return core.Money{Cents: total}, count, nil
}

// TopCategory returns the category with the highest total. Equal totals
// resolve to the lowest category id. ok is false when there are no
// expenses.
func (u *UserExpenses) TopCategory(ctx context.Context) (top core.CategoryAmount, ok bool, err error) {
	var cents int64
	err = u.db.QueryRowContext(ctx,
		`SELECT c.category_id, c.category_name, SUM(e.amount_cents) AS total`+expenseFrom+`
		 WHERE e.user_id = ?
		 GROUP BY c.category_id, c.category_name
		 ORDER BY total DESC, c.category_id ASC
		 LIMIT 1`, u.userID).Scan(&top.CategoryID, &top.Name, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CategoryAmount{}, false, nil
	}
	if err != nil {
		return core.CategoryAmount{}, false, storageErr("top category", err)
	}
	top.Amount = core.Money{Cents: cents}
	return top, true, nil
}

// CategoryTotals returns the total per category with at least one expense,
// largest first.
func (u *UserExpenses) CategoryTotals(ctx context.Context) ([]core.CategoryAmount, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT c.category_id, c.category_name, SUM(e.amount_cents) AS total`+expenseFrom+`
		 WHERE e.user_id = ?
		 GROUP BY c.category_id, c.category_name
		 ORDER BY total DESC, c.category_id ASC`, u.userID)
	if err != nil {
		return nil, storageErr("category totals", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.CategoryID, &ca.Name, &ca.Amount.Cents); err != nil {
			return nil, storageErr("scan category total", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("category totals", err)
	}
	return out, nil
}

// MonthlySeries returns the total per calendar month for expenses dated on
// or after since, oldest month first.
func (u *UserExpenses) MonthlySeries(ctx context.Context, since core.Date) ([]core.MonthTotal, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', expense_date) AS ym, SUM(amount_cents)
		 FROM expenses
		 WHERE user_id = ? AND expense_date >= ?
		 GROUP BY ym
		 ORDER BY ym ASC`, u.userID, since.String())
	if err != nil {
		return nil, storageErr("monthly series", err)
	}
	defer rows.Close()

	var out []core.MonthTotal
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.YearMonth, &mt.Total.Cents); err != nil {
			return nil, storageErr("scan monthly series", err)
		}
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("monthly series", err)
	}
	return out, nil
}

// MonthlyReport returns count, total and average for each month of year
// that has at least one expense, in month order.
func (u *UserExpenses) MonthlyReport(ctx context.Context, year int) ([]core.MonthStat, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT CAST(strftime('%m', expense_date) AS INTEGER) AS m, COUNT(*), SUM(amount_cents)
		 FROM expenses
		 WHERE user_id = ? AND strftime('%Y', expense_date) = ?
		 GROUP BY m
		 ORDER BY m ASC`, u.userID, yearKey(year))
	if err != nil {
		return nil, storageErr("monthly report", err)
	}
	defer rows.Close()

	var out []core.MonthStat
	for rows.Next() {
		var ms core.MonthStat
		if err := rows.Scan(&ms.Month, &ms.Count, &ms.Total.Cents); err != nil {
			return nil, storageErr("scan monthly report", err)
		}
		ms.Average = core.AverageOf(ms.Total, ms.Count)
		out = append(out, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("monthly report", err)
	}
	return out, nil
}

// CategoryReport returns one row per category, including categories the
// owner never used. Min and Max stay nil for those.
func (u *UserExpenses) CategoryReport(ctx context.Context) ([]core.CategoryStat, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT c.category_id, c.category_name,
		        COUNT(e.expense_id),
		        COALESCE(SUM(e.amount_cents), 0) AS total,
		        MIN(e.amount_cents),
		        MAX(e.amount_cents)
		 FROM categories c
		 LEFT JOIN expenses e ON e.category_id = c.category_id AND e.user_id = ?
		 GROUP BY c.category_id, c.category_name
		 ORDER BY total DESC, c.category_name ASC, c.category_id ASC`, u.userID)
	if err != nil {
		return nil, storageErr("category report", err)
	}
	defer rows.Close()

	var out []core.CategoryStat
	for rows.Next() {
		var (
			cs     core.CategoryStat
			lo, hi sql.NullInt64
		)
		if err := rows.Scan(&cs.CategoryID, &cs.Name, &cs.Count, &cs.Total.Cents, &lo, &hi); err != nil {
			return nil, storageErr("scan category report", err)
		}
		cs.Average = core.AverageOf(cs.Total, cs.Count)
		cs.Min = optionalMoney(lo)
		cs.Max = optionalMoney(hi)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("category report", err)
	}
	return out, nil
}

// CategoryTrends returns category totals per month for expenses dated on
// or after since. Only category/month pairs with activity appear.
func (u *UserExpenses) CategoryTrends(ctx context.Context, since core.Date) ([]core.CategoryMonthTotal, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT c.category_name, strftime('%Y-%m', e.expense_date) AS ym, SUM(e.amount_cents) AS total`+expenseFrom+`
		 WHERE e.user_id = ? AND e.expense_date >= ?
		 GROUP BY c.category_id, c.category_name, ym
		 ORDER BY ym ASC, total DESC, c.category_name ASC`, u.userID, since.String())
	if err != nil {
		return nil, storageErr("category trends", err)
	}
	defer rows.Close()

	var out []core.CategoryMonthTotal
	for rows.Next() {
		var ct core.CategoryMonthTotal
		if err := rows.Scan(&ct.Name, &ct.YearMonth, &ct.Total.Cents); err != nil {
			return nil, storageErr("scan category trends", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("category trends", err)
	}
	return out, nil
}

// YearlyReport returns count, total, average, min and max per year, most
// recent first.
func (u *UserExpenses) YearlyReport(ctx context.Context) ([]core.YearStat, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', expense_date) AS INTEGER) AS y,
		        COUNT(*), SUM(amount_cents), MIN(amount_cents), MAX(amount_cents)
		 FROM expenses
		 WHERE user_id = ?
		 GROUP BY y
		 ORDER BY y DESC`, u.userID)
	if err != nil {
		return nil, storageErr("yearly report", err)
	}
	defer rows.Close()

	var out []core.YearStat
	for rows.Next() {
		var (
			ys     core.YearStat
			lo, hi sql.NullInt64
		)
		if err := rows.Scan(&ys.Year, &ys.Count, &ys.Total.Cents, &lo, &hi); err != nil {
			return nil, storageErr("scan yearly report", err)
		}
		ys.Average = core.AverageOf(ys.Total, ys.Count)
		ys.Min = optionalMoney(lo)
		ys.Max = optionalMoney(hi)
		out = append(out, ys)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("yearly report", err)
	}
	return out, nil
}

// YearOverYear returns the totals of the most recent limit years.
func (u *UserExpenses) YearOverYear(ctx context.Context, limit int) ([]core.YearTotal, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := u.db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', expense_date) AS INTEGER) AS y, SUM(amount_cents)
		 FROM expenses
		 WHERE user_id = ?
		 GROUP BY y
		 ORDER BY y DESC
		 LIMIT ?`, u.userID, limit)
	if err != nil {
		return nil, storageErr("year over year", err)
	}
	defer rows.Close()

	var out []core.YearTotal
	for rows.Next() {
		var yt core.YearTotal
		if err := rows.Scan(&yt.Year, &yt.Total.Cents); err != nil {
			return nil, storageErr("scan year over year", err)
		}
		out = append(out, yt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("year over year", err)
	}
	return out, nil
}

// AvailableYears lists the years with at least one expense, newest first.
func (u *UserExpenses) AvailableYears(ctx context.Context) ([]int, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(strftime('%Y', expense_date) AS INTEGER) AS y
		 FROM expenses
		 WHERE user_id = ?
		 ORDER BY y DESC`, u.userID)
	if err != nil {
		return nil, storageErr("available years", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, storageErr("scan available years", err)
		}
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("available years", err)
	}
	return out, nil
}

func optionalMoney(v sql.NullInt64) *core.Money {
	if !v.Valid {
		return nil
	}
	return &core.Money{Cents: v.Int64}
}

func yearKey(year int) string {
	return fmt.Sprintf("%04d", year)
}
