// Package web provides the HTTP server and handlers for the table views.
package web

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/odata"
	"github.com/JonMunkholm/gridview/internal/tickets"
	webmw "github.com/JonMunkholm/gridview/internal/web/middleware"
)

// Options holds everything the server needs besides configuration.
type Options struct {
	Config *config.Config
	// Bindings maps registered view keys to their executors. Views
	// without a binding are not served.
	Bindings map[string]Binding
	// Tickets backs the ticket API and the sidebar counts. Optional.
	Tickets *tickets.Service
	// RowSources exposes local views as OData collections under /odata.
	RowSources map[string]odata.RowSource
	Logger     *slog.Logger
}

// Server is the HTTP server of the table views.
type Server struct {
	cfg      *config.Config
	bindings map[string]Binding
	tickets  *tickets.Service
	sources  map[string]odata.RowSource
	logger   *slog.Logger

	router   *chi.Mux
	sessions *sessionRegistry
	limiter  *webmw.RateLimiter
}

// NewServer creates a Server with its routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("web: config is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	secret := []byte(opts.Config.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}
	store := sessions.NewCookieStore(secret)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Config.Session.SecureCookie
	store.Options.SameSite = http.SameSiteLaxMode
	store.MaxAge(int(opts.Config.Session.IdleTTL.Seconds()))

	s := &Server{
		cfg:      opts.Config,
		bindings: opts.Bindings,
		tickets:  opts.Tickets,
		sources:  opts.RowSources,
		logger:   opts.Logger.With("component", "web"),
		router:   chi.NewRouter(),
		sessions: newSessionRegistry(store, opts.Config.Session.IdleTTL),
	}
	if opts.Config.Rate.Enabled {
		s.limiter = webmw.NewRateLimiter(opts.Config.Rate.RequestsPerMinute, opts.Config.Rate.Burst)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Metrics)
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.securityHeaders)

	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Stream responses stay open until the view settles, so they skip the
	// request timeout.
	s.router.Get("/views/{view}/stream", s.handleViewStream)

	s.router.Group(func(r chi.Router) {
		if s.cfg.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		}

		// Pages
		r.Get("/", s.handleDashboard)
		r.Get("/views/{view}", s.handleViewPage)
		r.Post("/views/{view}/filters", s.handleFilterForm)
		r.Post("/views/{view}/sorters", s.handleSorterForm)
		r.Post("/views/{view}/page", s.handlePageForm)

		// OData collections over local views
		for key, src := range s.sources {
			def, ok := core.Get(key)
			if !ok {
				s.logger.Warn("odata source for unknown view", "view", key)
				continue
			}
			r.Handle("/odata/"+key, odata.NewHandler(key, def.Columns, src))
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/views", s.handleListViews)
			r.Get("/views/{view}", s.handleViewJSON)

			r.Get("/tickets", s.handleListTickets)
			r.Get("/tickets/{id}", s.handleGetTicket)
			r.Group(func(r chi.Router) {
				r.Use(webmw.APIKeyAuth(s.cfg.Security))
				r.Post("/tickets", s.handleCreateTicket)
				r.Patch("/tickets/{id}", s.handleUpdateTicket)
			})
		})
	})
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully. The session janitor runs alongside.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	eg.Go(func() error {
		s.logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		return s.janitor(egctx)
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down server")
		err := srv.Shutdown(shutdownCtx)
		s.sessions.closeAll()
		return err
	})

	return eg.Wait()
}

// janitor drops idle view sessions and rate-limit buckets.
func (s *Server) janitor(ctx context.Context) error {
	interval := max(s.cfg.Session.IdleTTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.sessions.sweep(); n > 0 {
				s.logger.Debug("expired view sessions", "count", n)
			}
			if s.limiter != nil {
				s.limiter.Sweep(10 * time.Minute)
			}
		}
	}
}

// Close releases every view session. Serve does this on shutdown; tests
// that only use Router call it directly.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if s.cfg.Security.EnableCSP {
			// The datastar bundle is served from jsDelivr.
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-eval' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
