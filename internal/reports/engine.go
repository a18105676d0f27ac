// Package reports composes the per-user aggregates into the dashboard
// summary and the monthly, category and yearly reports.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expenso/internal/core"
	"expenso/internal/storage"

	"github.com/shopspring/decimal"
)

type ReportType string

const (
	Monthly  ReportType = "monthly"
	Category ReportType = "category"
	Yearly   ReportType = "yearly"
)

// ParseReportType maps any unknown value to Monthly.
func ParseReportType(s string) ReportType {
	switch t := ReportType(strings.ToLower(strings.TrimSpace(s))); t {
	case Monthly, Category, Yearly:
		return t
	default:
		return Monthly
	}
}

const (
	DefaultTrendMonths     = 6
	DefaultRecentLimit     = 5
	DefaultYearOverYearMax = 3
)

// ReportParams is the raw report request.
type ReportParams struct {
	Type string
	Year string
}

// Totals are the overall figures shown on every page.
type Totals struct {
	Amount  core.Money
	Count   int64
	Average decimal.Decimal
}

// DashboardSummary backs the dashboard page.
type DashboardSummary struct {
	Totals         Totals
	TopCategory    *core.CategoryAmount
	Recent         []core.Expense
	MonthlySeries  []core.MonthTotal
	CategoryTotals []core.CategoryAmount
}

// Report backs the reports page. Only the sections of Type are filled.
type Report struct {
	Type           ReportType
	Year           int
	Totals         Totals
	AvailableYears []int

	// monthly
	Monthly      []core.MonthStat
	YearOverYear []core.YearTotal

	// category
	Categories []core.CategoryStat
	Trends     []core.CategoryMonthTotal

	// yearly
	Yearly []core.YearStat
	// LatestYear is the most recent year with data; LatestMonthly is its
	// month-by-month breakdown.
	LatestYear    int
	LatestMonthly []core.MonthStat
}

// Engine computes reports for one user at a time. Queries run one after
// another on the request context.
type Engine struct {
	repo        *storage.SQLiteRepository
	now         func() time.Time
	trendMonths int
	recentLimit int
}

type Option func(*Engine)

// WithClock sets the time source for trailing windows and the default year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTrendMonths sets the trailing window of the monthly and category
// trend series.
func WithTrendMonths(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.trendMonths = n
		}
	}
}

// WithRecentLimit sets how many recent expenses the dashboard shows.
func WithRecentLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recentLimit = n
		}
	}
}

func NewEngine(repo *storage.SQLiteRepository, opts ...Option) *Engine {
	e := &Engine{
		repo:        repo,
		now:         time.Now,
		trendMonths: DefaultTrendMonths,
		recentLimit: DefaultRecentLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AverageExpense is total/count, or zero for no entries.
func AverageExpense(total core.Money, count int64) decimal.Decimal {
	return core.AverageOf(total, count)
}

// TrailingSince returns the first date inside a window of months ending
// today.
func TrailingSince(now time.Time, months int) core.Date {
	d := now.AddDate(0, -months, 0)
	return core.NewDate(d.Year(), int(d.Month()), d.Day())
}

func (e *Engine) totals(ctx context.Context, u *storage.UserExpenses) (Totals, error) {
	total, count, err := u.TotalAndCount(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("total and count: %w", err)
	}
	return Totals{Amount: total, Count: count, Average: AverageExpense(total, count)}, nil
}

// DashboardSummary gathers the dashboard figures for userID.
func (e *Engine) DashboardSummary(ctx context.Context, userID int64) (DashboardSummary, error) {
	u := e.repo.ForUser(userID)
	var (
		s   DashboardSummary
		err error
	)

	if s.Totals, err = e.totals(ctx, u); err != nil {
		return DashboardSummary{}, err
	}

	top, ok, err := u.TopCategory(ctx)
	if err != nil {
		return DashboardSummary{}, fmt.Errorf("top category: %w", err)
	}
	if ok {
		s.TopCategory = &top
	}

	if s.Recent, err = u.ListRecent(ctx, e.recentLimit); err != nil {
		return DashboardSummary{}, fmt.Errorf("recent expenses: %w", err)
	}

	since := TrailingSince(e.now(), e.trendMonths)
	if s.MonthlySeries, err = u.MonthlySeries(ctx, since); err != nil {
		return DashboardSummary{}, fmt.Errorf("monthly series: %w", err)
	}

	if s.CategoryTotals, err = u.CategoryTotals(ctx); err != nil {
		return DashboardSummary{}, fmt.Errorf("category totals: %w", err)
	}

	slog.DebugContext(ctx, "Dashboard summary computed",
		"user_id", userID,
		"entries", s.Totals.Count,
		"months", len(s.MonthlySeries))

	return s, nil
}

// Report builds the report selected by p for userID. An unknown type
// falls back to monthly, and a missing or malformed year to the current
// year.
func (e *Engine) Report(ctx context.Context, userID int64, p ReportParams) (Report, error) {
	u := e.repo.ForUser(userID)
	r := Report{
		Type: ParseReportType(p.Type),
		Year: e.parseYear(p.Year),
	}

	var err error
	if r.Totals, err = e.totals(ctx, u); err != nil {
		return Report{}, err
	}
	if r.AvailableYears, err = u.AvailableYears(ctx); err != nil {
		return Report{}, fmt.Errorf("available years: %w", err)
	}

	switch r.Type {
	case Category:
		err = e.categoryReport(ctx, u, &r)
	case Yearly:
		err = e.yearlyReport(ctx, u, &r)
	default:
		err = e.monthlyReport(ctx, u, &r)
	}
	if err != nil {
		return Report{}, err
	}

	slog.DebugContext(ctx, "Report computed",
		"user_id", userID,
		"report_type", string(r.Type),
		"year", r.Year)

	return r, nil
}

func (e *Engine) monthlyReport(ctx context.Context, u *storage.UserExpenses, r *Report) error {
	var err error
	if r.Monthly, err = u.MonthlyReport(ctx, r.Year); err != nil {
		return fmt.Errorf("monthly report: %w", err)
	}
	if r.YearOverYear, err = u.YearOverYear(ctx, DefaultYearOverYearMax); err != nil {
		return fmt.Errorf("year over year: %w", err)
	}
	return nil
}

func (e *Engine) categoryReport(ctx context.Context, u *storage.UserExpenses, r *Report) error {
	var err error
	if r.Categories, err = u.CategoryReport(ctx); err != nil {
		return fmt.Errorf("category report: %w", err)
	}
	since := TrailingSince(e.now(), e.trendMonths)
	if r.Trends, err = u.CategoryTrends(ctx, since); err != nil {
		return fmt.Errorf("category trends: %w", err)
	}
	return nil
}

func (e *Engine) yearlyReport(ctx context.Context, u *storage.UserExpenses, r *Report) error {
	var err error
	if r.Yearly, err = u.YearlyReport(ctx); err != nil {
		return fmt.Errorf("yearly report: %w", err)
	}
	if len(r.Yearly) == 0 {
		return nil
	}
	r.LatestYear = r.Yearly[0].Year
	if r.LatestMonthly, err = u.MonthlyReport(ctx, r.LatestYear); err != nil {
		return fmt.Errorf("latest year breakdown: %w", err)
	}
	return nil
}

func (e *Engine) parseYear(s string) int {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1 || y > 9999 {
		return e.now().Year()
	}
	return y
}
