package charts

import (
	"strconv"

	"expenso/internal/core"
)

// MonthRow is one formatted line of the monthly report table.
type MonthRow struct {
	Month   string
	Count   string
	Total   string
	Average string
}

// CategoryRow is one formatted line of the category report table.
type CategoryRow struct {
	Category string
	Count    string
	Total    string
	Average  string
	Min      string
	Max      string
	// Share is the category total as a percentage of the largest one,
	// for the inline bar.
	Share int
}

// YearRow is one formatted line of the yearly report table.
type YearRow struct {
	Year    string
	Count   string
	Total   string
	Average string
	Min     string
	Max     string
}

// ExpenseRow is one formatted line of an expense table.
type ExpenseRow struct {
	ID       int64
	Date     string
	Category string
	Note     string
	Amount   string
	Added    string
}

func (f Formatter) MonthlyRows(rows []core.MonthStat) []MonthRow {
	out := make([]MonthRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthRow{
			Month:   r.MonthName(),
			Count:   f.Count(r.Count),
			Total:   f.Money(r.Total),
			Average: f.Decimal(r.Average),
		})
	}
	return out
}

func (f Formatter) CategoryRows(rows []core.CategoryStat) []CategoryRow {
	var top int64
	for _, r := range rows {
		top = max(top, r.Total.Cents)
	}
	out := make([]CategoryRow, 0, len(rows))
	for _, r := range rows {
		share := 0
		if top > 0 {
			share = int(r.Total.Cents * 100 / top)
		}
		out = append(out, CategoryRow{
			Category: r.Name,
			Count:    f.Count(r.Count),
			Total:    f.Money(r.Total),
			Average:  f.Decimal(r.Average),
			Min:      f.OptionalMoney(r.Min),
			Max:      f.OptionalMoney(r.Max),
			Share:    share,
		})
	}
	return out
}

func (f Formatter) YearlyRows(rows []core.YearStat) []YearRow {
	out := make([]YearRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, YearRow{
			Year:    strconv.Itoa(r.Year),
			Count:   f.Count(r.Count),
			Total:   f.Money(r.Total),
			Average: f.Decimal(r.Average),
			Min:     f.OptionalMoney(r.Min),
			Max:     f.OptionalMoney(r.Max),
		})
	}
	return out
}

func (f Formatter) ExpenseRows(rows []core.Expense) []ExpenseRow {
	out := make([]ExpenseRow, 0, len(rows))
	for _, e := range rows {
		out = append(out, ExpenseRow{
			ID:       e.ID,
			Date:     e.Date.Format("02 Jan 2006"),
			Category: e.CategoryName,
			Note:     e.Note,
			Amount:   f.Money(e.Amount),
			Added:    f.Ago(e.CreatedAt),
		})
	}
	return out
}
