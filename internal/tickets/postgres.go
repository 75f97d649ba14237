package tickets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const ticketColumns = `id, subject, status, source, date_requested, main_category, sub_category, problem_issue, description`

// PostgresStore keeps tickets in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool. Call Migrate before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate runs all pending ticket migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Seed inserts the sample tickets that are not present yet and returns how
// many rows were added.
func (s *PostgresStore) Seed(ctx context.Context, list []Ticket) (int, error) {
	batch := &pgx.Batch{}
	for _, t := range list {
		batch.Queue(`INSERT INTO tickets (`+ticketColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Subject, t.Status, t.Source, t.DateRequested,
			t.MainCategory, t.SubCategory, t.ProblemIssue, t.Description)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	added := 0
	for range list {
		tag, err := results.Exec()
		if err != nil {
			return added, fmt.Errorf("seed tickets: %w", err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// Reset deletes every ticket.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE tickets`); err != nil {
		return fmt.Errorf("reset tickets: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanTicket)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Ticket, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	if err != nil {
		return Ticket{}, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return collectOne(rows, id)
}

func (s *PostgresStore) Create(ctx context.Context, n NewTicket) (Ticket, error) {
	if err := n.Validate(); err != nil {
		return Ticket{}, err
	}
	t := n.build(0, time.Now())
	rows, err := s.pool.Query(ctx, `INSERT INTO tickets (`+ticketColumns+`)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM tickets), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+ticketColumns,
		t.Subject, t.Status, t.Source, t.DateRequested,
		t.MainCategory, t.SubCategory, t.ProblemIssue, t.Description)
	if err != nil {
		return Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	return collectOne(rows, 0)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int, status string) (Ticket, error) {
	status, err := NormalizeStatus(status)
	if err != nil {
		return Ticket{}, err
	}
	rows, err := s.pool.Query(ctx, `UPDATE tickets SET status = $2 WHERE id = $1 RETURNING `+ticketColumns, id, status)
	if err != nil {
		return Ticket{}, fmt.Errorf("update ticket %d: %w", id, err)
	}
	return collectOne(rows, id)
}

func scanTicket(row pgx.CollectableRow) (Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.Subject, &t.Status, &t.Source, &t.DateRequested,
		&t.MainCategory, &t.SubCategory, &t.ProblemIssue, &t.Description)
	t.DateRequested = t.DateRequested.UTC()
	return t, err
}

func collectOne(rows pgx.Rows, id int) (Ticket, error) {
	t, err := pgx.CollectExactlyOneRow(rows, scanTicket)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, ErrNotFound
	}
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket %d: %w", id, err)
	}
	return t, nil
}
