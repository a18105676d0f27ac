package listing

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	q := Normalize(Params{})
	if q.SortBy != SortByDate || q.Order != Desc || q.Page != 1 {
		t.Fatalf("unexpected defaults: %+v", q)
	}
	where, args := q.Where()
	if where != "" || len(args) != 0 {
		t.Fatalf("expected no conditions, got %q %v", where, args)
	}
}

func TestNormalizeSortAndPage(t *testing.T) {
	cases := []struct {
		name      string
		in        Params
		wantSort  SortColumn
		wantOrder SortOrder
		wantPage  int
	}{
		{"valid", Params{SortBy: "amount", SortOrder: "ASC", Page: "3"}, SortByAmount, Asc, 3},
		{"lowercase order", Params{SortBy: "note", SortOrder: "asc"}, SortByNote, Asc, 1},
		{"injection sort", Params{SortBy: "expense_id; DROP TABLE expenses", SortOrder: "DESC; --"}, SortByDate, Desc, 1},
		{"unknown column", Params{SortBy: "user_id"}, SortByDate, Desc, 1},
		{"zero page", Params{Page: "0"}, SortByDate, Desc, 1},
		{"negative page", Params{Page: "-4"}, SortByDate, Desc, 1},
		{"text page", Params{Page: "two"}, SortByDate, Desc, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Normalize(tc.in)
			if q.SortBy != tc.wantSort || q.Order != tc.wantOrder || q.Page != tc.wantPage {
				t.Fatalf("got %+v", q)
			}
			if strings.Contains(q.OrderBy(), ";") {
				t.Fatalf("order by leaked input: %q", q.OrderBy())
			}
		})
	}
}

func TestOrderBy(t *testing.T) {
	q := Normalize(Params{SortBy: "category_name", SortOrder: "ASC"})
	if got := q.OrderBy(); got != "c.category_name ASC, e.expense_id DESC" {
		t.Fatalf("got %q", got)
	}
	// a Query built by hand with junk still renders only allowed tokens
	bad := Query{SortBy: "1; DROP", Order: "sideways"}
	if got := bad.OrderBy(); got != "e.expense_date DESC, e.expense_id DESC" {
		t.Fatalf("got %q", got)
	}
}

func TestWhereBindsEveryValue(t *testing.T) {
	q := Normalize(Params{
		Search:   " 50%_off ",
		Category: "4",
		DateFrom: "2025-01-01",
		DateTo:   "2025-01-31",
	})
	where, args := q.Where()
	want := ` AND (casefold(e.note) LIKE ? ESCAPE '\' OR casefold(c.category_name) LIKE ? ESCAPE '\')` +
		" AND e.category_id = ? AND e.expense_date >= ? AND e.expense_date <= ?"
	if where != want {
		t.Fatalf("where = %q", where)
	}
	wantArgs := []any{`%50\%\_off%`, `%50\%\_off%`, int64(4), "2025-01-01", "2025-01-31"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args = %#v", args)
	}
	if strings.Contains(where, "50") {
		t.Fatalf("search term interpolated into query text")
	}
}

func TestNormalizeDropsUnusableFilters(t *testing.T) {
	q := Normalize(Params{Category: "food", DateFrom: "last week", DateTo: "2025-13-01"})
	if q.Filter.CategoryID != 0 || q.Filter.DateFrom != nil || q.Filter.DateTo != nil {
		t.Fatalf("expected filters dropped, got %+v", q.Filter)
	}
}

func TestOffset(t *testing.T) {
	if got := Normalize(Params{Page: "3"}).Offset(); got != 20 {
		t.Fatalf("offset = %d", got)
	}
	if got := (Query{Page: 0}).Offset(); got != 0 {
		t.Fatalf("offset = %d", got)
	}
}

func TestValuesRoundTrip(t *testing.T) {
	in := url.Values{
		"search":    {"coffee"},
		"category":  {"2"},
		"date_from": {"2025-01-01"},
		"sort":      {"amount"},
		"order":     {"ASC"},
		"page":      {"2"},
	}
	q := Normalize(ParamsFromValues(in))
	if got := q.Values(); !reflect.DeepEqual(got, in) {
		t.Fatalf("values = %v", got)
	}
	if got := Normalize(Params{}).Values().Encode(); got != "" {
		t.Fatalf("defaults should encode empty, got %q", got)
	}
}

func TestWithSort(t *testing.T) {
	q := Normalize(Params{SortBy: "amount", SortOrder: "DESC", Page: "4"})
	flipped := q.WithSort(SortByAmount)
	if flipped.Order != Asc || flipped.Page != 1 {
		t.Fatalf("got %+v", flipped)
	}
	other := q.WithSort(SortByNote)
	if other.SortBy != SortByNote || other.Order != Desc {
		t.Fatalf("got %+v", other)
	}
}

func TestTotalPagesAndWindow(t *testing.T) {
	cases := []struct {
		count int64
		want  int
	}{
		{0, 0}, {1, 1}, {10, 1}, {11, 2}, {25, 3}, {30, 3},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.count); got != tc.want {
			t.Fatalf("TotalPages(%d) = %d, want %d", tc.count, got, tc.want)
		}
	}

	if got := PageWindow(1, 3, 2); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("window = %v", got)
	}
	if got := PageWindow(6, 10, 2); !reflect.DeepEqual(got, []int{4, 5, 6, 7, 8}) {
		t.Fatalf("window = %v", got)
	}
	if got := PageWindow(1, 0, 2); got != nil {
		t.Fatalf("window = %v", got)
	}
}

func TestNormalizePageNeverOverflowsOffset(t *testing.T) {
	tests := []struct {
		page string
		want int
	}{
		{"", 1},
		{"-3", 1},
		{"abc", 1},
		{"2", 2},
		{"9223372036854775807", MaxPage},
		{"1844674407370955162", MaxPage},
		{"99999999999999999999999", MaxPage},
		{"-99999999999999999999999", 1},
	}
	for _, tt := range tests {
		q := Normalize(Params{Page: tt.page})
		if q.Page != tt.want {
			t.Errorf("page %q: got %d, want %d", tt.page, q.Page, tt.want)
		}
		if q.Offset() < 0 {
			t.Errorf("page %q: negative offset %d", tt.page, q.Offset())
		}
	}
}

func TestSearchTermIsCaseFolded(t *testing.T) {
	_, args := Normalize(Params{Search: "CAFÉ"}).Where()
	if len(args) != 2 || args[0] != "%café%" {
		t.Fatalf("args = %#v", args)
	}
	if Fold("Café") != Fold("CAFÉ") {
		t.Fatalf("fold mismatch: %q vs %q", Fold("Café"), Fold("CAFÉ"))
	}
}
