package tickets

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Store persists tickets.
type Store interface {
	List(ctx context.Context) ([]Ticket, error)
	Get(ctx context.Context, id int) (Ticket, error)
	Create(ctx context.Context, n NewTicket) (Ticket, error)
	UpdateStatus(ctx context.Context, id int, status string) (Ticket, error)
}

// MemoryStore keeps tickets in process memory. It is used when no database
// is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets []Ticket
	now     func() time.Time
}

// NewMemoryStore returns a store holding a copy of initial.
func NewMemoryStore(initial []Ticket) *MemoryStore {
	return &MemoryStore{tickets: slices.Clone(initial), now: time.Now}
}

func (m *MemoryStore) List(_ context.Context) ([]Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tickets), nil
}

func (m *MemoryStore) Get(_ context.Context, id int) (Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.index(id)
	if i < 0 {
		return Ticket{}, ErrNotFound
	}
	return m.tickets[i], nil
}

func (m *MemoryStore) Create(_ context.Context, n NewTicket) (Ticket, error) {
	if err := n.Validate(); err != nil {
		return Ticket{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := 1
	for _, t := range m.tickets {
		id = max(id, t.ID+1)
	}
	t := n.build(id, m.now())
	m.tickets = append(m.tickets, t)
	return t, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id int, status string) (Ticket, error) {
	status, err := NormalizeStatus(status)
	if err != nil {
		return Ticket{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return Ticket{}, ErrNotFound
	}
	m.tickets[i].Status = status
	return m.tickets[i], nil
}

func (m *MemoryStore) index(id int) int {
	return slices.IndexFunc(m.tickets, func(t Ticket) bool { return t.ID == id })
}
