package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expenso/internal/auth"
	"expenso/internal/log"
	"expenso/internal/reports"
	"expenso/internal/services"
	"expenso/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	for _, name := range []string{"alice", "bob"} {
		hash, err := auth.HashPassword("password123")
		require.NoError(t, err)
		_, err = repo.CreateUser(context.Background(), name, hash)
		require.NoError(t, err)
	}

	s, err := NewServer(Config{
		CacheTTL:           time.Minute,
		CacheSize:          100,
		RateLimitPerMinute: 1000,
		CurrencySymbol:     "€",
	}, Deps{
		Expenses: services.NewExpenseService(repo, nil),
		Reports:  reports.NewEngine(repo),
		Sessions: auth.NewSessions(repo, time.Hour, false),
		DB:       repo,
		Logger:   log.New(log.Config{Output: io.Discard}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, repo
}

type client struct {
	t      *testing.T
	s      *Server
	cookie *http.Cookie
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.s.Handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, username string) *client {
	t.Helper()
	c := &client{t: t, s: s}
	rec := c.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {"password123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.CookieName {
			c.cookie = ck
		}
	}
	require.NotNil(t, c.cookie, "login must set the session cookie")
	return c
}

func expenseForm(amount, category, date, note string) url.Values {
	return url.Values{
		"amount":      {amount},
		"category_id": {category},
		"date":        {date},
		"note":        {note},
	}
}

type dashboardResponse struct {
	Totals struct {
		Amount decimal.Decimal `json:"amount"`
		Count  int64           `json:"count"`
	} `json:"totals"`
	TopCategory *struct {
		Name string `json:"name"`
	} `json:"top_category"`
	Recent []struct {
		ID   int64  `json:"id"`
		Note string `json:"note"`
	} `json:"recent"`
}

func (c *client) dashboard() dashboardResponse {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)
	var out dashboardResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAnonymousRequests(t *testing.T) {
	s, _ := newTestServer(t)
	anon := &client{t: t, s: s}

	rec := anon.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = anon.do(http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = anon.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = anon.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")
}

func TestExpenseLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	alice := login(t, s, "alice")

	before := alice.dashboard()
	assert.Equal(t, int64(0), before.Totals.Count)
	assert.Nil(t, before.TopCategory)

	rec := alice.do(http.MethodPost, "/expenses", expenseForm("12.50", "1", "2025-03-01", "Lunch"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/expenses?notice=created", rec.Header().Get("Location"))

	rec = alice.do(http.MethodGet, "/expenses?notice=created", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expense added.")
	assert.Contains(t, rec.Body.String(), "Lunch")
	assert.Contains(t, rec.Body.String(), "€12.50")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	// the cached dashboard must reflect the new expense
	after := alice.dashboard()
	assert.Equal(t, int64(1), after.Totals.Count)
	assert.True(t, after.Totals.Amount.Equal(decimal.RequireFromString("12.50")))
	require.NotNil(t, after.TopCategory)
	assert.Equal(t, "Food & Dining", after.TopCategory.Name)
	require.Len(t, after.Recent, 1)
	id := after.Recent[0].ID

	rec = alice.do(http.MethodGet, expensePath(id)+"/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="12.50"`)

	rec = alice.do(http.MethodPost, expensePath(id), expenseForm("20", "2", "2025-03-02", "Taxi"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/expenses?notice=updated", rec.Header().Get("Location"))
	assert.Equal(t, "Taxi", alice.dashboard().Recent[0].Note)

	rec = alice.do(http.MethodPost, expensePath(id)+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/expenses?notice=deleted", rec.Header().Get("Location"))
	assert.Equal(t, int64(0), alice.dashboard().Totals.Count)
}

func TestOtherUsersExpensesAreNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	alice := login(t, s, "alice")
	bob := login(t, s, "bob")

	rec := alice.do(http.MethodPost, "/expenses", expenseForm("5", "3", "2025-01-10", "Socks"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	id := alice.dashboard().Recent[0].ID

	for _, tc := range []struct {
		method, path string
		form         url.Values
	}{
		{http.MethodGet, expensePath(id) + "/edit", nil},
		{http.MethodPost, expensePath(id), expenseForm("1", "1", "2025-01-01", "")},
		{http.MethodPost, expensePath(id) + "/delete", nil},
		{http.MethodGet, "/expenses/abc/edit", nil},
	} {
		rec := bob.do(tc.method, tc.path, tc.form)
		assert.Equal(t, http.StatusSeeOther, rec.Code, tc.path)
		assert.Equal(t, "/expenses?notice=notfound", rec.Header().Get("Location"), tc.path)
	}

	assert.Equal(t, int64(0), bob.dashboard().Totals.Count)
	assert.Equal(t, int64(1), alice.dashboard().Totals.Count)
	assert.Equal(t, "Socks", alice.dashboard().Recent[0].Note)
}

func TestCreateExpenseValidation(t *testing.T) {
	s, _ := newTestServer(t)
	alice := login(t, s, "alice")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"negative amount", expenseForm("-3", "1", "2025-01-01", ""), "Amount must be"},
		{"missing date", expenseForm("3", "1", "", ""), "Please fill in the date."},
		{"unknown category", expenseForm("3", "999", "2025-01-01", ""), "Please choose a valid category."},
		{"bad date", expenseForm("3", "1", "2025-02-30", ""), "Date must be a valid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := alice.do(http.MethodPost, "/expenses", tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
	assert.Equal(t, int64(0), alice.dashboard().Totals.Count)
}

func TestListingFiltersAndPages(t *testing.T) {
	s, _ := newTestServer(t)
	alice := login(t, s, "alice")
	for i := 1; i <= 12; i++ {
		note := "coffee"
		if i%3 == 0 {
			note = "train ticket"
		}
		rec := alice.do(http.MethodPost, "/expenses", expenseForm("2", "1", fmt.Sprintf("2025-02-%02d", i), note))
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	rec := alice.do(http.MethodGet, "/expenses?search=train", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span id="result-count">4</span>`)
	assert.NotContains(t, rec.Body.String(), "coffee")

	rec = alice.do(http.MethodGet, "/expenses?page=2&sort=bogus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page 2 of 2")
	assert.Contains(t, rec.Body.String(), `rel="prev"`)

	rec = alice.do(http.MethodGet, "/expenses?page=99", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No expenses match these filters.")
}

func TestReportsAPI(t *testing.T) {
	s, _ := newTestServer(t)
	alice := login(t, s, "alice")
	for _, f := range []url.Values{
		expenseForm("10", "1", "2024-05-01", ""),
		expenseForm("30", "2", "2025-05-01", ""),
	} {
		require.Equal(t, http.StatusSeeOther, alice.do(http.MethodPost, "/expenses", f).Code)
	}

	rec := alice.do(http.MethodGet, "/api/reports?type=category&year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Type           string `json:"type"`
		Year           int    `json:"year"`
		AvailableYears []int  `json:"available_years"`
		Charts         map[string]json.RawMessage
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "category", out.Type)
	assert.Equal(t, 2025, out.Year)
	assert.Equal(t, []int{2025, 2024}, out.AvailableYears)
	assert.Contains(t, out.Charts, "categories")
	assert.NotContains(t, out.Charts, "monthly")

	rec = alice.do(http.MethodGet, "/reports?type=nonsense&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="chart-data"`)
	assert.Contains(t, rec.Body.String(), "May")
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	anon := &client{t: t, s: s}

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/healthz", nil).Code)

	rec := anon.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	alice := login(t, s, "alice")
	alice.do(http.MethodPost, "/expenses", expenseForm("1", "1", "2025-01-01", ""))

	rec = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "expenses_created_total 1")
}
