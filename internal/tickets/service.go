package tickets

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
)

// Service caches the ticket list of a Store and serves it to table
// controllers. Every write reloads the cache and bumps its version so
// memoized results are recomputed.
type Service struct {
	store    Store
	columns  core.Columns
	pageSize int

	mu      sync.RWMutex
	tickets []Ticket
	version uint64
}

// NewService loads the tickets of store.
func NewService(ctx context.Context, store Store, cols core.Columns, pageSize int) (*Service, error) {
	s := &Service{store: store, columns: cols, pageSize: pageSize}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the store.
func (s *Service) Reload(ctx context.Context) error {
	list, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load tickets: %w", err)
	}
	s.mu.Lock()
	s.tickets = list
	s.version++
	s.mu.Unlock()
	logging.FromContext(ctx).Debug("tickets loaded", "count", len(list))
	return nil
}

// Tickets returns the cached tickets.
func (s *Service) Tickets() []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tickets)
}

// Rows returns every ticket as a row, for the OData endpoint.
func (s *Service) Rows() []core.Row {
	return s.rows(PresetAll)
}

// Counts returns the per-status counts for the sidebar.
func (s *Service) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts(s.tickets)
}

// Version identifies the cached ticket list.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Get returns one ticket from the store.
func (s *Service) Get(ctx context.Context, id int) (Ticket, error) {
	return s.store.Get(ctx, id)
}

// Create stores a new ticket and reloads the cache.
func (s *Service) Create(ctx context.Context, n NewTicket) (Ticket, error) {
	t, err := s.store.Create(ctx, n)
	if err != nil {
		return Ticket{}, err
	}
	logging.WithFields(ctx,
		"ip", core.GetIPAddressFromContext(ctx),
		"user_agent", core.GetUserAgentFromContext(ctx),
	).Info("ticket created", "id", t.ID, "category", t.MainCategory)
	return t, s.Reload(ctx)
}

// UpdateStatus changes the status of ticket id and reloads the cache.
func (s *Service) UpdateStatus(ctx context.Context, id int, status string) (Ticket, error) {
	t, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return Ticket{}, err
	}
	logging.WithFields(ctx,
		"ip", core.GetIPAddressFromContext(ctx),
		"user_agent", core.GetUserAgentFromContext(ctx),
	).Info("ticket status updated", "id", t.ID, "status", t.Status)
	return t, s.Reload(ctx)
}

// Executor returns a local executor over the tickets of preset. It
// follows later writes through the service version.
func (s *Service) Executor(preset Preset) core.Executor {
	return &presetExecutor{svc: s, preset: preset}
}

func (s *Service) rows(preset Preset) []core.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Row, 0, len(s.tickets))
	for _, t := range s.tickets {
		if preset.Match(t) {
			out = append(out, t.Row())
		}
	}
	return out
}

type presetExecutor struct {
	svc    *Service
	preset Preset
}

func (e *presetExecutor) Execute(_ context.Context, st core.State) (core.Result, error) {
	return core.ExecuteLocal(e.svc.rows(e.preset), st, e.svc.columns, e.svc.pageSize), nil
}

func (e *presetExecutor) Version() uint64 { return e.svc.Version() }
