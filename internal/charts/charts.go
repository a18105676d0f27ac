// Package charts shapes aggregate results into the label/value arrays
// consumed by the chart renderer and into table rows. Input order is
// always preserved.
package charts

import (
	"strconv"
	"time"

	"expenso/internal/core"
)

// Series is one label array and one value array, aligned by index.
type Series struct {
	Label  string    `json:"label,omitempty"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Dataset is one line of a multi-series chart.
type Dataset struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// MultiSeries shares one label axis between several datasets.
type MultiSeries struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Len is the number of points.
func (s Series) Len() int {
	return len(s.Labels)
}

func newSeries(label string, n int) Series {
	return Series{Label: label, Labels: make([]string, 0, n), Values: make([]float64, 0, n)}
}

// MonthlyTrend charts the dashboard's monthly totals, labelled "Jan 2025".
func MonthlyTrend(rows []core.MonthTotal) Series {
	s := newSeries("Monthly spending", len(rows))
	for _, r := range rows {
		s.Labels = append(s.Labels, MonthLabel(r.YearMonth))
		s.Values = append(s.Values, r.Total.Units())
	}
	return s
}

// CategoryBreakdown charts totals per category.
func CategoryBreakdown(rows []core.CategoryAmount) Series {
	s := newSeries("Spending by category", len(rows))
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Name)
		s.Values = append(s.Values, r.Amount.Units())
	}
	return s
}

// MonthlyReportChart charts the month totals of a single year.
func MonthlyReportChart(rows []core.MonthStat) Series {
	s := newSeries("Total", len(rows))
	for _, r := range rows {
		s.Labels = append(s.Labels, r.MonthName())
		s.Values = append(s.Values, r.Total.Units())
	}
	return s
}

// YearOverYear charts yearly totals in the order given.
func YearOverYear(rows []core.YearTotal) Series {
	s := newSeries("Yearly total", len(rows))
	for _, r := range rows {
		s.Labels = append(s.Labels, strconv.Itoa(r.Year))
		s.Values = append(s.Values, r.Total.Units())
	}
	return s
}

// CategoryReportChart charts category totals from the category report.
func CategoryReportChart(rows []core.CategoryStat) Series {
	s := newSeries("Total", len(rows))
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Name)
		s.Values = append(s.Values, r.Total.Units())
	}
	return s
}

// YearlyChart charts the yearly report totals.
func YearlyChart(rows []core.YearStat) Series {
	s := newSeries("Total", len(rows))
	for _, r := range rows {
		s.Labels = append(s.Labels, strconv.Itoa(r.Year))
		s.Values = append(s.Values, r.Total.Units())
	}
	return s
}

// CategoryTrends pivots per-category monthly totals into one dataset per
// category over a shared month axis. Months and categories appear in the
// order first seen; months without activity for a category are zero.
func CategoryTrends(rows []core.CategoryMonthTotal) MultiSeries {
	var (
		ms       MultiSeries
		monthIdx = map[string]int{}
		catIdx   = map[string]int{}
	)
	for _, r := range rows {
		if _, ok := monthIdx[r.YearMonth]; !ok {
			monthIdx[r.YearMonth] = len(ms.Labels)
			ms.Labels = append(ms.Labels, MonthLabel(r.YearMonth))
		}
		if _, ok := catIdx[r.Name]; !ok {
			catIdx[r.Name] = len(ms.Datasets)
			ms.Datasets = append(ms.Datasets, Dataset{Label: r.Name})
		}
	}
	for i := range ms.Datasets {
		ms.Datasets[i].Values = make([]float64, len(ms.Labels))
	}
	for _, r := range rows {
		ms.Datasets[catIdx[r.Name]].Values[monthIdx[r.YearMonth]] += r.Total.Units()
	}
	if ms.Labels == nil {
		ms.Labels = []string{}
		ms.Datasets = []Dataset{}
	}
	return ms
}

// MonthLabel turns "2025-01" into "Jan 2025". Unparseable keys are
// returned unchanged.
func MonthLabel(yearMonth string) string {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return yearMonth
	}
	return t.Format("Jan 2006")
}
