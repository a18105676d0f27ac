package reports

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expenso/internal/core"
	"expenso/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	repo   *storage.SQLiteRepository
	engine *Engine
	userID int64
	cats   map[string]int64
}

var fixedNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(s.T().TempDir(), "reports.db"))
	require.NoError(s.T(), err)
	s.repo = repo

	u, err := repo.CreateUser(s.ctx, "u", "hash")
	require.NoError(s.T(), err)
	s.userID = u.ID

	cats, err := repo.ListCategories(s.ctx)
	require.NoError(s.T(), err)
	s.cats = map[string]int64{}
	for _, c := range cats {
		s.cats[c.Name] = c.ID
	}

	s.engine = NewEngine(repo, WithClock(func() time.Time { return fixedNow }))
}

func (s *EngineTestSuite) TearDownTest() {
	s.repo.Close()
}

func (s *EngineTestSuite) seedScenario() {
	rows := []struct {
		cat   string
		cents int64
		date  core.Date
	}{
		{"Food & Dining", 500, core.NewDate(2025, 1, 10)},
		{"Food & Dining", 1500, core.NewDate(2025, 2, 3)},
		{"Transportation", 5000, core.NewDate(2025, 2, 15)},
	}
	u := s.repo.ForUser(s.userID)
	for _, r := range rows {
		_, err := u.Create(s.ctx, core.ExpenseFields{CategoryID: s.cats[r.cat], Amount: core.Money{Cents: r.cents}, Date: r.date})
		require.NoError(s.T(), err)
	}
}

func (s *EngineTestSuite) TestDashboardScenario() {
	s.seedScenario()

	sum, err := s.engine.DashboardSummary(s.ctx, s.userID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(7000), sum.Totals.Amount.Cents)
	assert.Equal(s.T(), int64(3), sum.Totals.Count)
	assert.Equal(s.T(), "23.33", sum.Totals.Average.StringFixed(2))
	require.NotNil(s.T(), sum.TopCategory)
	assert.Equal(s.T(), "Transportation", sum.TopCategory.Name)
	assert.Len(s.T(), sum.Recent, 3)
	assert.Equal(s.T(), "2025-02-15", sum.Recent[0].Date.String())
	assert.Equal(s.T(), []core.MonthTotal{
		{YearMonth: "2025-01", Total: core.Money{Cents: 500}},
		{YearMonth: "2025-02", Total: core.Money{Cents: 6500}},
	}, sum.MonthlySeries)
	require.Len(s.T(), sum.CategoryTotals, 2)
	assert.Equal(s.T(), "Transportation", sum.CategoryTotals[0].Name)
}

func (s *EngineTestSuite) TestDashboardEmptyUser() {
	sum, err := s.engine.DashboardSummary(s.ctx, s.userID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), sum.Totals.Amount.Cents)
	assert.Zero(s.T(), sum.Totals.Count)
	assert.True(s.T(), sum.Totals.Average.IsZero())
	assert.Nil(s.T(), sum.TopCategory)
	assert.Empty(s.T(), sum.Recent)
	assert.Empty(s.T(), sum.MonthlySeries)
}

func (s *EngineTestSuite) TestMonthlyReportScenario() {
	s.seedScenario()

	r, err := s.engine.Report(s.ctx, s.userID, ReportParams{Type: "monthly", Year: "2025"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), Monthly, r.Type)
	assert.Equal(s.T(), 2025, r.Year)
	require.Len(s.T(), r.Monthly, 2)

	want := []struct {
		month int
		name  string
		count int64
		total int64
		avg   string
	}{
		{1, "January", 1, 500, "5"},
		{2, "February", 2, 6500, "32.5"},
	}
	for i, w := range want {
		got := r.Monthly[i]
		assert.Equal(s.T(), w.month, got.Month)
		assert.Equal(s.T(), w.name, got.MonthName())
		assert.Equal(s.T(), w.count, got.Count)
		assert.Equal(s.T(), w.total, got.Total.Cents)
		assert.Equal(s.T(), w.avg, got.Average.String())
	}
	assert.Equal(s.T(), []core.YearTotal{{Year: 2025, Total: core.Money{Cents: 7000}}}, r.YearOverYear)
	assert.Equal(s.T(), []int{2025}, r.AvailableYears)
}

func (s *EngineTestSuite) TestReportDefaults() {
	r, err := s.engine.Report(s.ctx, s.userID, ReportParams{Type: "pie; DROP TABLE", Year: "next year"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), Monthly, r.Type)
	assert.Equal(s.T(), 2025, r.Year)
	assert.Empty(s.T(), r.Monthly)
}

func (s *EngineTestSuite) TestCategoryReport() {
	s.seedScenario()

	r, err := s.engine.Report(s.ctx, s.userID, ReportParams{Type: "Category"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), Category, r.Type)
	require.Len(s.T(), r.Categories, 10)
	assert.Equal(s.T(), "Transportation", r.Categories[0].Name)
	assert.Equal(s.T(), "Food & Dining", r.Categories[1].Name)
	assert.Equal(s.T(), "10", r.Categories[1].Average.String())
	assert.Nil(s.T(), r.Categories[2].Min)

	// trailing 6 months from 2025-03-20 covers both months
	assert.Len(s.T(), r.Trends, 3)
}

func (s *EngineTestSuite) TestYearlyReportAddsLatestBreakdown() {
	s.seedScenario()
	_, err := s.repo.ForUser(s.userID).Create(s.ctx, core.ExpenseFields{
		CategoryID: s.cats["Travel"], Amount: core.Money{Cents: 20000}, Date: core.NewDate(2023, 8, 1),
	})
	require.NoError(s.T(), err)

	r, err := s.engine.Report(s.ctx, s.userID, ReportParams{Type: "yearly"})
	require.NoError(s.T(), err)
	require.Len(s.T(), r.Yearly, 2)
	assert.Equal(s.T(), 2025, r.Yearly[0].Year)
	assert.Equal(s.T(), 2023, r.Yearly[1].Year)
	assert.Equal(s.T(), 2025, r.LatestYear)
	assert.Len(s.T(), r.LatestMonthly, 2)
	assert.Equal(s.T(), []int{2025, 2023}, r.AvailableYears)
}

func (s *EngineTestSuite) TestTrailingWindowExcludesOldMonths() {
	u := s.repo.ForUser(s.userID)
	for _, d := range []core.Date{core.NewDate(2024, 9, 19), core.NewDate(2024, 9, 20), core.NewDate(2025, 3, 1)} {
		_, err := u.Create(s.ctx, core.ExpenseFields{CategoryID: s.cats["Other"], Amount: core.Money{Cents: 100}, Date: d})
		require.NoError(s.T(), err)
	}

	sum, err := s.engine.DashboardSummary(s.ctx, s.userID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []core.MonthTotal{
		{YearMonth: "2024-09", Total: core.Money{Cents: 100}},
		{YearMonth: "2025-03", Total: core.Money{Cents: 100}},
	}, sum.MonthlySeries)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestParseReportType(t *testing.T) {
	cases := map[string]ReportType{
		"monthly":  Monthly,
		"CATEGORY": Category,
		" yearly ": Yearly,
		"":         Monthly,
		"weekly":   Monthly,
	}
	for in, want := range cases {
		if got := ParseReportType(in); got != want {
			t.Fatalf("ParseReportType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrailingSince(t *testing.T) {
	got := TrailingSince(time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC), 6)
	if got.String() != "2024-09-20" {
		t.Fatalf("got %s", got)
	}
}

func TestAverageExpense(t *testing.T) {
	if got := AverageExpense(core.Money{}, 0); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
	if got := AverageExpense(core.Money{Cents: 7000}, 3).StringFixed(2); got != "23.33" {
		t.Fatalf("got %s", got)
	}
}
