package http

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"expenso/internal/log"
	"expenso/internal/reports"
)

const readTimeout = 7 * time.Second

func userPrefix(userID int64) string {
	return fmt.Sprintf("u%d:", userID)
}

func dashboardKey(userID int64) string {
	return userPrefix(userID) + "dashboard"
}

func reportKey(userID int64, p reports.ReportParams) string {
	year := strings.TrimSpace(p.Year)
	if len(year) > 8 {
		year = year[:8]
	}
	return userPrefix(userID) + "report:" + string(reports.ParseReportType(p.Type)) + ":" + year
}

func (s *Server) generation(userID int64) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// storeIfCurrent caches v only while userID is still at generation gen.
// The check and the store share genMu with invalidateUser, so a store
// either lands before the bump and is swept by DeletePrefix, or is skipped.
func (s *Server) storeIfCurrent(userID int64, gen uint64, key string, v any) bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[userID] != gen {
		return false
	}
	s.results.Set(key, v)
	return true
}

// invalidateUser drops every cached result of userID. Fills already in
// flight are not stored because the generation moved on.
func (s *Server) invalidateUser(ctx context.Context, userID int64) {
	s.genMu.Lock()
	s.generations[userID]++
	s.genMu.Unlock()

	n := s.results.DeletePrefix(userPrefix(userID))
	s.logger.DebugContext(ctx, "Result cache invalidated", log.FieldUserID, userID, "entries", n)
}

// cached returns the value under key, computing it with fill on a miss.
// Concurrent misses for the same key share one fill.
func cached[T any](ctx context.Context, s *Server, userID int64, key string, fill func(context.Context) (T, error)) (T, error) {
	if v, ok := s.results.Get(key); ok {
		if t, ok := v.(T); ok {
			atomic.AddInt64(&s.metrics.cacheHits, 1)
			return t, nil
		}
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	gen := s.generation(userID)
	v, err, _ := s.fills.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readTimeout)
		defer cancel()
		t, err := fill(cctx)
		if err != nil {
			return nil, err
		}
		s.storeIfCurrent(userID, gen, key, t)
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (s *Server) dashboard(ctx context.Context, userID int64) (reports.DashboardSummary, error) {
	return cached(ctx, s, userID, dashboardKey(userID), func(ctx context.Context) (reports.DashboardSummary, error) {
		return s.reports.DashboardSummary(ctx, userID)
	})
}

func (s *Server) report(ctx context.Context, userID int64, p reports.ReportParams) (reports.Report, error) {
	return cached(ctx, s, userID, reportKey(userID, p), func(ctx context.Context) (reports.Report, error) {
		return s.reports.Report(ctx, userID, p)
	})
}
