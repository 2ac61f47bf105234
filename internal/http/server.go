package http

import (
	"context"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"shopledger/internal/cache"
	"shopledger/internal/catalog"
	"shopledger/internal/ledger"
	"shopledger/internal/log"
	"shopledger/internal/sheets"
	appweb "shopledger/web"
)

const (
	defaultStoreTimeout = 15 * time.Second
	defaultSessionTTL   = 12 * time.Hour
	defaultMaxSessions  = 100
	cacheSweepInterval  = 10 * time.Minute
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Location *time.Location
	Clock    func() time.Time
	// Seed fills an empty period with zero-quantity catalog rows.
	Seed *catalog.Catalog

	AdminUser         string
	AdminPasswordHash string // bcrypt; admin routes are open when empty

	StoreTimeout   time.Duration
	TrustedProxies []string
	RateLimitRPM   int
	SessionTTL     time.Duration
	MaxSessions    int

	// Ping checks the backend for /readyz.
	Ping   func(context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	store     sheets.SnapshotStore
	catalog   *catalog.Catalog
	opts      Options
	logger    *log.Logger

	sessions       *cache.LRUCache[*ledger.Ledger]
	cacheManager   *cache.Manager
	rateLimiter    *rateLimiter
	trustedProxies []*net.IPNet
	metrics        securityMetrics
	startedAt      time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// Each browser session gets its own ledger over store.
func NewServer(addr string, store sheets.SnapshotStore, cat *catalog.Catalog, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.AdminUser == "" {
		opts.AdminUser = "admin"
	}
	if cat == nil {
		cat = catalog.New(nil)
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:          store,
		catalog:        cat,
		opts:           opts,
		logger:         logger,
		sessions:       cache.NewLRUCache[*ledger.Ledger](opts.MaxSessions, opts.SessionTTL),
		cacheManager:   cache.NewManager(opts.Logger),
		rateLimiter:    newRateLimiter(opts.RateLimitRPM),
		trustedProxies: parseTrustedProxies(opts.TrustedProxies, logger),
		startedAt:      opts.Clock(),
	}
	s.cacheManager.Register("sessions", s.sessions)
	s.cacheManager.StartCleanup(context.Background(), cacheSweepInterval)

	if opts.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin routes are unauthenticated")
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/", s.withMiddleware(s.handleIndex))
	mux.HandleFunc("/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("/refresh", s.withMiddleware(s.handleRefresh))
	mux.HandleFunc("/ui/item-price", s.withMiddleware(s.handleItemPrice))
	mux.HandleFunc("/ui/summary", s.withMiddleware(s.handleSummary))

	mux.HandleFunc("/admin/transactions", s.withMiddleware(s.requireAdmin(s.handleAdminTransactions)))
	mux.HandleFunc("/admin/export.xlsx", s.withMiddleware(s.requireAdmin(s.handleExport)))

	return s
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// storeContext bounds a request's backend calls.
func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.StoreTimeout)
}

// ledgerOptions are applied to every session ledger.
func (s *Server) ledgerOptions() []ledger.Option {
	opts := []ledger.Option{
		ledger.WithClock(s.opts.Clock),
		ledger.WithLocation(s.opts.Location),
		ledger.WithLogger(s.opts.Logger),
	}
	if s.opts.Seed != nil {
		opts = append(opts, ledger.WithSeed(s.opts.Seed))
	}
	return opts
}
