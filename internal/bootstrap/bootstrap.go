// Package bootstrap assembles the ticket store, the view bindings and the
// admin tasks from configuration. Both binaries start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/gridview/internal/admin"
	"github.com/JonMunkholm/gridview/internal/application"
	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/core/views"
	"github.com/JonMunkholm/gridview/internal/odata"
	"github.com/JonMunkholm/gridview/internal/tickets"
	"github.com/JonMunkholm/gridview/internal/web"
)

// ErrNoDatabase is returned by OpenTasks when no database URL is set.
var ErrNoDatabase = errors.New("no database configured (set DATABASE_URL)")

// Stack is the assembled data layer.
type Stack struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tickets *tickets.Service
	// Tasks is nil when tickets live in memory.
	Tasks *admin.Tasks

	pool    *pgxpool.Pool
	limiter *odata.FetchLimiter
}

// Open connects the ticket store. Without a database URL the tickets live
// in memory, seeded with the sample data.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stack{
		Config:  cfg,
		Logger:  logger,
		limiter: odata.NewFetchLimiter(cfg.Remote.MaxConcurrent, cfg.Remote.FetchTimeout),
	}

	var store tickets.Store
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		s.pool = pool

		pg := tickets.NewPostgresStore(pool)
		s.Tasks = &admin.Tasks{Store: pg}
		if cfg.Database.AutoMigrate {
			if _, err := s.Tasks.Seed(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to prepare ticket store: %w", err)
			}
		}
		store = pg
	} else {
		logger.Info("no database configured, using in-memory tickets")
		store = tickets.NewMemoryStore(tickets.Seed())
	}

	svc, err := tickets.NewService(ctx, store, views.TicketColumns, cfg.Table.RowsPerPage)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	s.Tickets = svc
	if s.Tasks != nil {
		s.Tasks.Reload = svc.Reload
	}
	return s, nil
}

// OpenTasks connects to the database and returns the admin tasks without
// loading tickets, for commands that may run before the schema exists.
// The returned func closes the pool.
func OpenTasks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*admin.Tasks, func(), error) {
	if !cfg.Database.Enabled() {
		return nil, nil, ErrNoDatabase
	}
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return &admin.Tasks{Store: tickets.NewPostgresStore(pool)}, pool.Close, nil
}

func connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		logger.Info("connected to database")
	}
	return pool, nil
}

// Close releases the database pool, if any.
func (s *Stack) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Bindings maps every servable view to its executor. The people view is
// bound only when a remote URL is configured.
func (s *Stack) Bindings(hc *http.Client) map[string]web.Binding {
	out := map[string]web.Binding{
		views.TicketsKey: web.TicketBinding(s.Tickets),
	}
	if def, ok := core.Get(views.PeopleKey); ok && s.Config.Remote.ODataURL != "" {
		out[views.PeopleKey] = web.RemoteBinding(s.Config.Remote.ODataURL, def, s.pageSize(def), hc, s.Logger,
			odata.WithLimiter(s.limiter))
	}
	return out
}

// RowSources lists the local views exposed as OData collections.
func (s *Stack) RowSources() map[string]odata.RowSource {
	return map[string]odata.RowSource{views.TicketsKey: s.Tickets}
}

// Executor returns the executor and definition of view key. scope selects
// a ticket status preset and is ignored by other views.
func (s *Stack) Executor(key, scope string, hc *http.Client) (core.Executor, core.ViewDefinition, error) {
	def, err := core.Lookup(key)
	if err != nil {
		return nil, core.ViewDefinition{}, err
	}
	b, ok := s.Bindings(hc)[key]
	if !ok {
		return nil, core.ViewDefinition{}, fmt.Errorf("%w: %s has no data source configured", core.ErrUnknownView, key)
	}
	if b.Normalize != nil {
		scope = b.Normalize(scope)
	}
	return b.Executor(scope), def, nil
}

// Sources lists the bound views for the terminal browser, sorted by group
// and key.
func (s *Stack) Sources(hc *http.Client) []application.Source {
	bindings := s.Bindings(hc)
	var out []application.Source
	for _, def := range core.All() {
		b, ok := bindings[def.Info.Key]
		if !ok {
			continue
		}
		scope := ""
		if b.Normalize != nil {
			scope = b.Normalize("")
		}
		out = append(out, application.Source{
			Def:      def,
			Executor: b.Executor(scope),
			PageSize: s.pageSize(def),
		})
	}
	return out
}

func (s *Stack) pageSize(def core.ViewDefinition) int {
	if def.PageSize > 0 {
		return def.PageSize
	}
	if s.Config.Table.RowsPerPage > 0 {
		return s.Config.Table.RowsPerPage
	}
	return def.RowsPerPage()
}
