package listing

import "expenso/internal/core"

// Result is one page of a filtered listing together with figures computed
// over every matching row.
type Result struct {
	Query       Query
	Rows        []core.Expense
	TotalCount  int64
	TotalAmount core.Money
	TotalPages  int
}

// TotalPages returns ceil(count / PageSize), zero for an empty listing.
func TotalPages(count int64) int {
	if count <= 0 {
		return 0
	}
	return int((count + PageSize - 1) / PageSize)
}

// PageWindow returns the page numbers shown around current, clipped to
// [1, total].
func PageWindow(current, total, radius int) []int {
	if total <= 0 {
		return nil
	}
	lo := max(1, current-radius)
	hi := min(total, current+radius)
	var pages []int
	for p := lo; p <= hi; p++ {
		pages = append(pages, p)
	}
	return pages
}

// HasPrev reports whether a previous page exists.
func (r Result) HasPrev() bool {
	return r.Query.Page > 1
}

// HasNext reports whether a following page exists.
func (r Result) HasNext() bool {
	return r.Query.Page < r.TotalPages
}
