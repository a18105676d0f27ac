package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expenso/internal/auth"
	"expenso/internal/cache"
	"expenso/internal/charts"
	"expenso/internal/log"
	"expenso/internal/middleware/ratelimit"
	"expenso/internal/middleware/security"
	"expenso/internal/middleware/trace"
	"expenso/internal/reports"
	"expenso/internal/services"
	appweb "expenso/web"

	"golang.org/x/sync/singleflight"
)

// Pinger reports database reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries the server settings taken from the environment.
type Config struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CacheTTL           time.Duration
	CacheSize          int
	RateLimitPerMinute int
	CurrencySymbol     string
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Expenses *services.ExpenseService
	Reports  *reports.Engine
	Sessions *auth.Sessions
	DB       Pinger
	Logger   *log.Logger
}

type Server struct {
	http.Server
	logger    *log.Logger
	templates *template.Template
	format    charts.Formatter
	now       func() time.Time

	expenses *services.ExpenseService
	reports  *reports.Engine
	sessions *auth.Sessions
	db       Pinger

	results      *cache.LRUCache[any]
	cacheManager *cache.Manager
	fills        singleflight.Group
	genMu        sync.Mutex
	generations  map[int64]uint64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	metrics          appMetrics

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:         cfg.Addr,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger:           logger.WithComponent(log.ComponentHTTP),
		templates:        tmpl,
		format:           charts.NewFormatter(cfg.CurrencySymbol),
		now:              time.Now,
		expenses:         deps.Expenses,
		reports:          deps.Reports,
		sessions:         deps.Sessions,
		db:               deps.DB,
		results:          cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL),
		cacheManager:     cache.NewManager(),
		generations:      make(map[int64]uint64),
		securityDetector: security.NewDetector(),
		metrics:          appMetrics{started: time.Now()},
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   5 * time.Minute,
	})
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.results)
	s.cacheManager.StartCleanup(time.Minute)
	s.expenses.OnChange(func(ctx context.Context, userID int64) {
		s.invalidateUser(ctx, userID)
	})

	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	authed := func(h http.HandlerFunc) http.Handler {
		return s.sessions.Middleware(security.NoStore(h))
	}
	mux.Handle("GET /{$}", authed(s.handleDashboard))
	mux.Handle("GET /expenses", authed(s.handleListExpenses))
	mux.Handle("GET /expenses/new", authed(s.handleNewExpense))
	mux.Handle("POST /expenses", authed(s.handleCreateExpense))
	mux.Handle("GET /expenses/{id}/edit", authed(s.handleEditExpense))
	mux.Handle("POST /expenses/{id}", authed(s.handleUpdateExpense))
	mux.Handle("POST /expenses/{id}/delete", authed(s.handleDeleteExpense))
	mux.Handle("GET /reports", authed(s.handleReports))
	mux.Handle("GET /api/dashboard", authed(s.handleAPIDashboard))
	mux.Handle("GET /api/reports", authed(s.handleAPIReports))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP)(h)
	h = s.securityDetector.Middleware(h)
	h = headers.Middleware(h)
	h = log.Middleware(s.logger, trace.GetRequestID)(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// Shutdown stops background goroutines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
