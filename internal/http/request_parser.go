package http

import (
	"net/http"
	"strconv"
	"strings"

	"expenso/internal/core"
	"expenso/internal/listing"
	"expenso/internal/reports"
)

// maxFormBytes bounds add/edit/login form bodies.
const maxFormBytes = 16 << 10

// parseExpenseInput reads the add/edit form into an ExpenseInput. Values
// are sanitized but otherwise left for validation.
func parseExpenseInput(w http.ResponseWriter, r *http.Request) (core.ExpenseInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Amount:     sanitizeInput(r.PostForm.Get("amount")),
		CategoryID: sanitizeInput(r.PostForm.Get("category_id")),
		Date:       sanitizeInput(r.PostForm.Get("date")),
		Note:       sanitizeInput(r.PostForm.Get("note")),
	}, nil
}

// parseListingParams reads the listing query string. Normalization happens
// in the listing package.
func parseListingParams(r *http.Request) listing.Params {
	p := listing.ParamsFromValues(r.URL.Query())
	p.Search = sanitizeInput(p.Search)
	return p
}

func parseReportParams(r *http.Request) reports.ReportParams {
	q := r.URL.Query()
	return reports.ReportParams{
		Type: strings.TrimSpace(q.Get("type")),
		Year: strings.TrimSpace(q.Get("year")),
	}
}

// parseExpenseID reads the {id} path segment. Non-positive or malformed
// ids are reported as not ok.
func parseExpenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
