package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS followers (
    id SERIAL PRIMARY KEY,
    date DATE NOT NULL UNIQUE,
    count INTEGER NOT NULL CHECK (count >= 0)
)`

// uniqueViolation is the SQLSTATE of a unique constraint failure.
const uniqueViolation = "23505"

// PgxIface is the subset of *pgxpool.Pool used by PostgresStore.
// pgxmock pools satisfy it in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore persists samples in the followers table of a PostgreSQL database.
type PostgresStore struct {
	pool PgxIface
}

// NewPostgresStore wraps an existing pool. Call EnsureSchema before first use.
func NewPostgresStore(pool PgxIface) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects a pgx pool to databaseURL and verifies connectivity.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("connect", err)
	}
	return NewPostgresStore(pool), nil
}

// EnsureSchema creates the followers table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return unavailable("schema", err)
	}
	return nil
}

func (p *PostgresStore) Add(ctx context.Context, s Sample) error {
	if err := validate(s); err != nil {
		return err
	}
	date := Day(s.Date)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return unavailable("add", err)
	}
	defer rollback(ctx, tx)

	exists, err := pgExists(ctx, tx, date)
	if err != nil {
		return unavailable("add", err)
	}
	if exists {
		return ErrDuplicateKey
	}

	if _, err := tx.Exec(ctx, "INSERT INTO followers (date, count) VALUES ($1, $2)", date, s.Count); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return unavailable("add", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("add", err)
	}
	return nil
}

func (p *PostgresStore) AddBatch(ctx context.Context, samples []Sample) error {
	if err := validateBatch(samples); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return unavailable("add batch", err)
	}
	defer rollback(ctx, tx)

	for _, s := range samples {
		date := Day(s.Date)
		exists, err := pgExists(ctx, tx, date)
		if err != nil {
			return unavailable("add batch", err)
		}
		if exists {
			return fmt.Errorf("%s: %w", s.Key(), ErrDuplicateKey)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO followers (date, count) VALUES ($1, $2)", date, s.Count); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s: %w", s.Key(), ErrDuplicateKey)
			}
			return unavailable("add batch", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("add batch", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]Sample, error) {
	rows, err := p.pool.Query(ctx, "SELECT date, count FROM followers ORDER BY date ASC")
	if err != nil {
		return nil, unavailable("list", err)
	}
	return scanPgRows(rows, "list")
}

func (p *PostgresStore) ListPage(ctx context.Context, page, limit int) ([]Sample, int, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, err
	}

	var total int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM followers").Scan(&total); err != nil {
		return nil, 0, unavailable("list page", err)
	}

	rows, err := p.pool.Query(ctx,
		"SELECT date, count FROM followers ORDER BY date ASC LIMIT $1 OFFSET $2",
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, unavailable("list page", err)
	}
	samples, err := scanPgRows(rows, "list page")
	if err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

func (p *PostgresStore) Recent(ctx context.Context, n int) ([]Sample, error) {
	if n <= 0 {
		return []Sample{}, nil
	}

	rows, err := p.pool.Query(ctx, "SELECT date, count FROM followers ORDER BY date DESC LIMIT $1", n)
	if err != nil {
		return nil, unavailable("recent", err)
	}
	samples, err := scanPgRows(rows, "recent")
	if err != nil {
		return nil, err
	}
	reverse(samples)
	return samples, nil
}

func (p *PostgresStore) Update(ctx context.Context, date, newDate time.Time, count int) error {
	if err := validate(Sample{Date: newDate, Count: count}); err != nil {
		return err
	}
	date, newDate = Day(date), Day(newDate)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return unavailable("update", err)
	}
	defer rollback(ctx, tx)

	exists, err := pgExists(ctx, tx, date)
	if err != nil {
		return unavailable("update", err)
	}
	if !exists {
		return ErrNotFound
	}

	if !newDate.Equal(date) {
		taken, err := pgExists(ctx, tx, newDate)
		if err != nil {
			return unavailable("update", err)
		}
		if taken {
			return ErrDuplicateKey
		}
	}

	if _, err := tx.Exec(ctx, "UPDATE followers SET date = $1, count = $2 WHERE date = $3", newDate, count, date); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return unavailable("update", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("update", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, date time.Time) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM followers WHERE date = $1", Day(date)); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM followers"); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// rollback is a no-op once the transaction has been committed.
func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx)
}

func pgExists(ctx context.Context, tx pgx.Tx, date time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM followers WHERE date = $1)", date).Scan(&exists)
	return exists, err
}

func scanPgRows(rows pgx.Rows, op string) ([]Sample, error) {
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.Date, &s.Count); err != nil {
			return nil, unavailable(op, err)
		}
		s.Date = Day(s.Date)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return samples, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
