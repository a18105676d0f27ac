package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount is a total aggregated by category.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Amount     Money
}

// MonthTotal is a total for one calendar month, keyed "YYYY-MM".
type MonthTotal struct {
	YearMonth string
	Total     Money
}

// MonthStat is one row of the monthly report for a given year.
type MonthStat struct {
	Month   int // 1-12
	Count   int64
	Total   Money
	Average decimal.Decimal
}

// MonthName returns the English month name, e.g. "January".
func (s MonthStat) MonthName() string {
	return time.Month(s.Month).String()
}

// CategoryStat is one row of the category report. Min and Max are nil when
// the user has no expenses in the category.
type CategoryStat struct {
	CategoryID int64
	Name       string
	Count      int64
	Total      Money
	Average    decimal.Decimal
	Min        *Money
	Max        *Money
}

// CategoryMonthTotal is a category total within one month.
type CategoryMonthTotal struct {
	Name      string
	YearMonth string
	Total     Money
}

// YearStat is one row of the yearly report.
type YearStat struct {
	Year    int
	Count   int64
	Total   Money
	Average decimal.Decimal
	Min     *Money
	Max     *Money
}

// YearTotal is the total spent in one year.
type YearTotal struct {
	Year  int
	Total Money
}
