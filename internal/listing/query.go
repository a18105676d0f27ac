// Package listing turns untrusted filter, sort and page inputs into a
// closed Query that renders a parameterized SQL fragment.
//
// Only the allow-listed sort column and order ever reach the query text;
// every filter value is passed as a bound argument.
package listing

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"expenso/internal/core"
)

// PageSize is the fixed number of rows per listing page.
const PageSize = 10

// MaxPage is the largest page whose offset still fits in an int. Larger
// requests are clamped to it, which keeps them past the end of any listing.
const MaxPage = math.MaxInt/PageSize + 1

// FoldFunc is the SQL function the storage layer registers to case-fold
// columns the same way Fold folds search terms.
const FoldFunc = "casefold"

type SortColumn string

const (
	SortByDate     SortColumn = "expense_date"
	SortByAmount   SortColumn = "amount"
	SortByCategory SortColumn = "category_name"
	SortByNote     SortColumn = "note"
)

// sortColumns maps each allowed column to its qualified SQL expression.
var sortColumns = map[SortColumn]string{
	SortByDate:     "e.expense_date",
	SortByAmount:   "e.amount_cents",
	SortByCategory: "c.category_name",
	SortByNote:     "e.note",
}

type SortOrder string

const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"
)

// Params is the raw listing request as it arrives from a query string.
type Params struct {
	Search    string
	Category  string
	DateFrom  string
	DateTo    string
	SortBy    string
	SortOrder string
	Page      string
}

// ParamsFromValues reads Params from URL query values.
func ParamsFromValues(v url.Values) Params {
	return Params{
		Search:    v.Get("search"),
		Category:  v.Get("category"),
		DateFrom:  v.Get("date_from"),
		DateTo:    v.Get("date_to"),
		SortBy:    v.Get("sort"),
		SortOrder: v.Get("order"),
		Page:      v.Get("page"),
	}
}

// Filter is the normalized filter set. Zero values impose no constraint.
type Filter struct {
	Search     string
	CategoryID int64
	DateFrom   *core.Date
	DateTo     *core.Date
}

// Query is a fully normalized listing request.
type Query struct {
	Filter Filter
	SortBy SortColumn
	Order  SortOrder
	Page   int
}

// Normalize validates every field of p, replacing anything unusable with
// its default. It never fails.
func Normalize(p Params) Query {
	q := Query{
		SortBy: SortByDate,
		Order:  Desc,
		Page:   1,
	}

	q.Filter.Search = strings.TrimSpace(p.Search)
	if id, err := strconv.ParseInt(strings.TrimSpace(p.Category), 10, 64); err == nil && id > 0 {
		q.Filter.CategoryID = id
	}
	q.Filter.DateFrom = parseDay(p.DateFrom)
	q.Filter.DateTo = parseDay(p.DateTo)

	if col := SortColumn(strings.ToLower(strings.TrimSpace(p.SortBy))); sortColumns[col] != "" {
		q.SortBy = col
	}
	switch SortOrder(strings.ToUpper(strings.TrimSpace(p.SortOrder))) {
	case Asc:
		q.Order = Asc
	case Desc:
		q.Order = Desc
	}
	q.Page = parsePage(p.Page)
	return q
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return MaxPage
	}
	if err != nil || n < 1 {
		return 1
	}
	return min(n, MaxPage)
}

// Fold returns the Unicode case-folded form of s, so that "CAFÉ" and
// "café" compare equal.
func Fold(s string) string {
	return cases.Fold().String(s)
}

func parseDay(s string) *core.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return nil
	}
	return &core.Date{Time: t}
}

// Where renders the filter conditions, without the owner condition, as a
// string of " AND ..." clauses and their bound arguments. The caller must
// join expenses as e and categories as c.
func (q Query) Where() (string, []any) {
	var b strings.Builder
	var args []any

	if q.Filter.Search != "" {
		pattern := "%" + escapeLike(Fold(q.Filter.Search)) + "%"
		b.WriteString(` AND (` + FoldFunc + `(e.note) LIKE ? ESCAPE '\' OR ` + FoldFunc + `(c.category_name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if q.Filter.CategoryID > 0 {
		b.WriteString(" AND e.category_id = ?")
		args = append(args, q.Filter.CategoryID)
	}
	if q.Filter.DateFrom != nil {
		b.WriteString(" AND e.expense_date >= ?")
		args = append(args, q.Filter.DateFrom.String())
	}
	if q.Filter.DateTo != nil {
		b.WriteString(" AND e.expense_date <= ?")
		args = append(args, q.Filter.DateTo.String())
	}
	return b.String(), args
}

// OrderBy renders the ORDER BY expression from the allow-lists only.
func (q Query) OrderBy() string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[SortByDate]
	}
	order := Desc
	if q.Order == Asc {
		order = Asc
	}
	return col + " " + string(order) + ", e.expense_id DESC"
}

// Limit is the page size.
func (q Query) Limit() int {
	return PageSize
}

// Offset is the number of rows skipped before the current page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * PageSize
}

// Values encodes the normalized query back into URL parameters, omitting
// defaults. Used to build sort and pagination links.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Filter.Search != "" {
		v.Set("search", q.Filter.Search)
	}
	if q.Filter.CategoryID > 0 {
		v.Set("category", strconv.FormatInt(q.Filter.CategoryID, 10))
	}
	if q.Filter.DateFrom != nil {
		v.Set("date_from", q.Filter.DateFrom.String())
	}
	if q.Filter.DateTo != nil {
		v.Set("date_to", q.Filter.DateTo.String())
	}
	if q.SortBy != SortByDate {
		v.Set("sort", string(q.SortBy))
	}
	if q.Order != Desc {
		v.Set("order", string(q.Order))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// WithPage returns a copy of q on page n.
func (q Query) WithPage(n int) Query {
	q.Page = n
	return q
}

// WithSort returns a copy of q sorted by col. Re-selecting the current
// column flips the order; a new column starts descending.
func (q Query) WithSort(col SortColumn) Query {
	if q.SortBy == col {
		if q.Order == Desc {
			q.Order = Asc
		} else {
			q.Order = Desc
		}
	} else {
		q.SortBy = col
		q.Order = Desc
	}
	q.Page = 1
	return q
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
