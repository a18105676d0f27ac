package http

import (
	"html/template"
	"strconv"

	"expenso/internal/charts"
	"expenso/internal/core"
	"expenso/internal/listing"
	"expenso/internal/reports"

	"github.com/shopspring/decimal"
)

var templateFuncs = template.FuncMap{
	"isSelected": func(id int64, current string) bool {
		return strconv.FormatInt(id, 10) == current
	},
}

// Page is the layout data shared by every authenticated page.
type Page struct {
	Title    string
	Active   string
	Username string
	Notice   string
}

type dashboardView struct {
	Page
	Total       string
	Count       string
	Average     string
	TopCategory string
	TopAmount   string
	Recent      []charts.ExpenseRow
	Charts      dashboardCharts
}

type dashboardCharts struct {
	Monthly    charts.Series `json:"monthly"`
	Categories charts.Series `json:"categories"`
}

func (s *Server) dashboardView(sum reports.DashboardSummary) dashboardView {
	v := dashboardView{
		Total:   s.format.Money(sum.Totals.Amount),
		Count:   s.format.Count(sum.Totals.Count),
		Average: s.format.Decimal(sum.Totals.Average),
		Recent:  s.format.ExpenseRows(sum.Recent),
		Charts: dashboardCharts{
			Monthly:    charts.MonthlyTrend(sum.MonthlySeries),
			Categories: charts.CategoryBreakdown(sum.CategoryTotals),
		},
	}
	if sum.TopCategory != nil {
		v.TopCategory = sum.TopCategory.Name
		v.TopAmount = s.format.Money(sum.TopCategory.Amount)
	}
	return v
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type sortLink struct {
	Label  string
	URL    string
	Active bool
	Asc    bool
}

type listView struct {
	Page
	Rows        []charts.ExpenseRow
	Categories  []core.Category
	Search      string
	Category    string
	DateFrom    string
	DateTo      string
	TotalCount  string
	TotalAmount string
	CurrentPage int
	TotalPages  int
	Pages       []pageLink
	PrevURL     string
	NextURL     string
	Sorts       []sortLink
}

var sortLabels = []struct {
	col   listing.SortColumn
	label string
}{
	{listing.SortByDate, "Date"},
	{listing.SortByCategory, "Category"},
	{listing.SortByNote, "Note"},
	{listing.SortByAmount, "Amount"},
}

func listURL(q listing.Query) string {
	if v := q.Values().Encode(); v != "" {
		return "/expenses?" + v
	}
	return "/expenses"
}

func (s *Server) listView(res listing.Result, cats []core.Category) listView {
	q := res.Query
	v := listView{
		Rows:        s.format.ExpenseRows(res.Rows),
		Categories:  cats,
		Search:      q.Filter.Search,
		TotalCount:  s.format.Count(res.TotalCount),
		TotalAmount: s.format.Money(res.TotalAmount),
		CurrentPage: q.Page,
		TotalPages:  res.TotalPages,
	}
	if q.Filter.CategoryID > 0 {
		v.Category = strconv.FormatInt(q.Filter.CategoryID, 10)
	}
	if q.Filter.DateFrom != nil {
		v.DateFrom = q.Filter.DateFrom.String()
	}
	if q.Filter.DateTo != nil {
		v.DateTo = q.Filter.DateTo.String()
	}

	for _, n := range listing.PageWindow(q.Page, res.TotalPages, 2) {
		v.Pages = append(v.Pages, pageLink{Number: n, URL: listURL(q.WithPage(n)), Current: n == q.Page})
	}
	if res.HasPrev() {
		v.PrevURL = listURL(q.WithPage(q.Page - 1))
	}
	if res.HasNext() {
		v.NextURL = listURL(q.WithPage(q.Page + 1))
	}
	for _, sl := range sortLabels {
		v.Sorts = append(v.Sorts, sortLink{
			Label:  sl.label,
			URL:    listURL(q.WithSort(sl.col)),
			Active: q.SortBy == sl.col,
			Asc:    q.Order == listing.Asc,
		})
	}
	return v
}

type formView struct {
	Page
	Action     string
	ExpenseID  int64
	Input      core.ExpenseInput
	Categories []core.Category
	Error      string
}

type typeLink struct {
	Label  string
	URL    string
	Active bool
}

type yearLink struct {
	Year   int
	URL    string
	Active bool
}

type reportView struct {
	Page
	Type         string
	Year         int
	Types        []typeLink
	Years        []yearLink
	Total        string
	Count        string
	Average      string
	MonthRows    []charts.MonthRow
	CategoryRows []charts.CategoryRow
	YearRows     []charts.YearRow
	LatestYear   int
	LatestRows   []charts.MonthRow
	Charts       reportCharts
}

// reportCharts holds the chart payload of a report. Only the sections of
// the report type are set.
type reportCharts struct {
	Monthly      *charts.Series      `json:"monthly,omitempty"`
	YearOverYear *charts.Series      `json:"year_over_year,omitempty"`
	Categories   *charts.Series      `json:"categories,omitempty"`
	Trends       *charts.MultiSeries `json:"trends,omitempty"`
	Yearly       *charts.Series      `json:"yearly,omitempty"`
	Latest       *charts.Series      `json:"latest,omitempty"`
}

func buildReportCharts(r reports.Report) reportCharts {
	var c reportCharts
	switch r.Type {
	case reports.Category:
		cats := charts.CategoryReportChart(r.Categories)
		trends := charts.CategoryTrends(r.Trends)
		c.Categories, c.Trends = &cats, &trends
	case reports.Yearly:
		yearly := charts.YearlyChart(r.Yearly)
		latest := charts.MonthlyReportChart(r.LatestMonthly)
		c.Yearly, c.Latest = &yearly, &latest
	default:
		monthly := charts.MonthlyReportChart(r.Monthly)
		yoy := charts.YearOverYear(r.YearOverYear)
		c.Monthly, c.YearOverYear = &monthly, &yoy
	}
	return c
}

func reportURL(t reports.ReportType, year int) string {
	return "/reports?type=" + string(t) + "&year=" + strconv.Itoa(year)
}

func (s *Server) reportView(r reports.Report) reportView {
	v := reportView{
		Type:       string(r.Type),
		Year:       r.Year,
		Total:      s.format.Money(r.Totals.Amount),
		Count:      s.format.Count(r.Totals.Count),
		Average:    s.format.Decimal(r.Totals.Average),
		LatestYear: r.LatestYear,
		Charts:     buildReportCharts(r),
	}
	for _, t := range []struct {
		typ   reports.ReportType
		label string
	}{{reports.Monthly, "Monthly"}, {reports.Category, "By category"}, {reports.Yearly, "Yearly"}} {
		v.Types = append(v.Types, typeLink{Label: t.label, URL: reportURL(t.typ, r.Year), Active: t.typ == r.Type})
	}
	for _, y := range r.AvailableYears {
		v.Years = append(v.Years, yearLink{Year: y, URL: reportURL(r.Type, y), Active: y == r.Year})
	}

	switch r.Type {
	case reports.Category:
		v.CategoryRows = s.format.CategoryRows(r.Categories)
	case reports.Yearly:
		v.YearRows = s.format.YearlyRows(r.Yearly)
		v.LatestRows = s.format.MonthlyRows(r.LatestMonthly)
	default:
		v.MonthRows = s.format.MonthlyRows(r.Monthly)
	}
	return v
}

// JSON payloads. Money is encoded as a decimal string in major units.

type totalsJSON struct {
	Amount  decimal.Decimal `json:"amount"`
	Count   int64           `json:"count"`
	Average decimal.Decimal `json:"average"`
}

func newTotalsJSON(t reports.Totals) totalsJSON {
	return totalsJSON{Amount: t.Amount.Decimal(), Count: t.Count, Average: t.Average.Round(2)}
}

type categoryAmountJSON struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type expenseJSON struct {
	ID       int64           `json:"id"`
	Date     string          `json:"date"`
	Category string          `json:"category"`
	Note     string          `json:"note"`
	Amount   decimal.Decimal `json:"amount"`
}

type dashboardJSON struct {
	Totals      totalsJSON          `json:"totals"`
	TopCategory *categoryAmountJSON `json:"top_category"`
	Recent      []expenseJSON       `json:"recent"`
	Charts      dashboardCharts     `json:"charts"`
}

func newDashboardJSON(sum reports.DashboardSummary) dashboardJSON {
	out := dashboardJSON{
		Totals: newTotalsJSON(sum.Totals),
		Recent: make([]expenseJSON, 0, len(sum.Recent)),
		Charts: dashboardCharts{
			Monthly:    charts.MonthlyTrend(sum.MonthlySeries),
			Categories: charts.CategoryBreakdown(sum.CategoryTotals),
		},
	}
	if top := sum.TopCategory; top != nil {
		out.TopCategory = &categoryAmountJSON{ID: top.CategoryID, Name: top.Name, Amount: top.Amount.Decimal()}
	}
	for _, e := range sum.Recent {
		out.Recent = append(out.Recent, expenseJSON{
			ID:       e.ID,
			Date:     e.Date.String(),
			Category: e.CategoryName,
			Note:     e.Note,
			Amount:   e.Amount.Decimal(),
		})
	}
	return out
}

type reportJSON struct {
	Type           string       `json:"type"`
	Year           int          `json:"year"`
	AvailableYears []int        `json:"available_years"`
	Totals         totalsJSON   `json:"totals"`
	LatestYear     int          `json:"latest_year,omitempty"`
	Charts         reportCharts `json:"charts"`
}

func newReportJSON(r reports.Report) reportJSON {
	years := r.AvailableYears
	if years == nil {
		years = []int{}
	}
	return reportJSON{
		Type:           string(r.Type),
		Year:           r.Year,
		AvailableYears: years,
		Totals:         newTotalsJSON(r.Totals),
		LatestYear:     r.LatestYear,
		Charts:         buildReportCharts(r),
	}
}
