// Package admin provides administrative operations for the ticket store.
package admin

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/tickets"
)

// Timeout is the maximum duration of one administrative operation.
const Timeout = 30 * time.Second

// Store is the part of the PostgreSQL ticket store the tasks drive.
type Store interface {
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, list []tickets.Ticket) (int, error)
	Reset(ctx context.Context) error
}

// DoneMsg reports a finished task to a terminal program.
type DoneMsg string

// ErrMsg reports a failed task to a terminal program.
type ErrMsg struct{ Err error }

func (e ErrMsg) Error() string { return e.Err.Error() }

// Tasks runs migrations, seeding and resets against Store. Reload, when
// set, runs after any task that changes the stored rows so live views
// pick up the new data.
type Tasks struct {
	Store  Store
	Reload func(ctx context.Context) error
}

type stepFn func(ctx context.Context) error

// Migrate applies pending schema migrations.
func (t *Tasks) Migrate(ctx context.Context) error {
	return t.run(ctx, []stepFn{t.Store.Migrate})
}

// Seed inserts the sample tickets that are missing and returns how many
// were added.
func (t *Tasks) Seed(ctx context.Context) (int, error) {
	var added int
	err := t.run(ctx, []stepFn{
		t.Store.Migrate,
		func(ctx context.Context) error {
			n, err := t.Store.Seed(ctx, tickets.Seed())
			added = n
			return err
		},
		t.reload,
	})
	return added, err
}

// ResetAll deletes every ticket and restores the sample data.
// This is a destructive operation.
func (t *Tasks) ResetAll(ctx context.Context) error {
	return t.run(ctx, []stepFn{
		t.Store.Migrate,
		t.Store.Reset,
		func(ctx context.Context) error {
			_, err := t.Store.Seed(ctx, tickets.Seed())
			return err
		},
		t.reload,
	})
}

// MigrateCmd runs Migrate as a terminal command.
func (t *Tasks) MigrateCmd() tea.Cmd {
	return command(func(ctx context.Context) (string, error) {
		return "Migrations applied", t.Migrate(ctx)
	})
}

// SeedCmd runs Seed as a terminal command.
func (t *Tasks) SeedCmd() tea.Cmd {
	return command(func(ctx context.Context) (string, error) {
		n, err := t.Seed(ctx)
		return fmt.Sprintf("Seeded %d tickets", n), err
	})
}

// ResetCmd runs ResetAll as a terminal command.
func (t *Tasks) ResetCmd() tea.Cmd {
	return command(func(ctx context.Context) (string, error) {
		return "Tickets reset", t.ResetAll(ctx)
	})
}

func command(task func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()

		done, err := task(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg(done)
	}
}

func (t *Tasks) reload(ctx context.Context) error {
	if t.Reload == nil {
		return nil
	}
	return t.Reload(ctx)
}

func (t *Tasks) run(ctx context.Context, steps []stepFn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, Timeout)
		defer cancel()
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
