package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type appMetrics struct {
	started         time.Time
	expensesCreated int64
	cacheHits       int64
	cacheMisses     int64
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks the database and templates.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.db == nil {
		checks["database"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else if err := s.db.Ping(ctx); err != nil {
		checks["database"] = "failed"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
		s.logger.Failure(r.Context(), "Readiness check failed", err)
	} else {
		checks["database"] = "ok"
	}

	checks["cache"] = map[string]any{"entries": s.results.Size()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	trace := s.traceMiddleware.GetMetrics()
	limits := s.rateLimiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", trace.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", trace.ServerErrors)
	metric("expenses_created_total", "counter", "Expenses created through the web UI", atomic.LoadInt64(&s.metrics.expensesCreated))
	metric("report_cache_hits_total", "counter", "Dashboard and report cache hits", atomic.LoadInt64(&s.metrics.cacheHits))
	metric("report_cache_misses_total", "counter", "Dashboard and report cache misses", atomic.LoadInt64(&s.metrics.cacheMisses))
	metric("report_cache_entries", "gauge", "Current cached results", s.results.Size())
	metric("rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter", limits.Rejected)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", limits.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged as probes", s.securityDetector.SuspiciousCount())
	metric("uptime_seconds", "gauge", "Process uptime in seconds", int64(time.Since(s.metrics.started).Seconds()))
}
