package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expenso/internal/core"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity, "Amount must be"},
		{"wrapped validation", fmt.Errorf("add: %w", &core.ValidationError{Field: "category_id", Err: core.ErrMissingField}), http.StatusUnprocessableEntity, "Please fill in the category."},
		{"not found", core.ErrNotFound, http.StatusNotFound, core.ErrNotFound.Error()},
		{"storage", &core.StorageError{Op: "insert expense", Err: errors.New("disk I/O error")}, http.StatusInternalServerError, genericErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if !strings.HasPrefix(msg, tt.wantMsg) {
				t.Fatalf("message = %q, want prefix %q", msg, tt.wantMsg)
			}
			if strings.Contains(msg, "disk") {
				t.Fatal("storage cause leaked to the user")
			}
		})
	}
}

func TestNoticeFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/expenses?notice=deleted", nil)
	if got := noticeFromQuery(r); got != "Expense deleted." {
		t.Fatalf("got %q", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/expenses?notice=<script>", nil)
	if got := noticeFromQuery(r); got != "" {
		t.Fatalf("unknown notice must be ignored, got %q", got)
	}
}

func TestRedirectWithNotice(t *testing.T) {
	rec := httptest.NewRecorder()
	redirectWithNotice(rec, httptest.NewRequest(http.MethodPost, "/expenses", nil), "/expenses", NoticeCreated)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/expenses?notice=created" {
		t.Fatalf("location = %q", loc)
	}
}

func TestWantsJSON(t *testing.T) {
	if !wantsJSON(httptest.NewRequest(http.MethodGet, "/api/reports", nil)) {
		t.Fatal("api path must answer JSON")
	}
	if wantsJSON(httptest.NewRequest(http.MethodGet, "/reports", nil)) {
		t.Fatal("page path must answer HTML")
	}
}
