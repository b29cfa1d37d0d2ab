package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS followers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL UNIQUE,
    count INTEGER NOT NULL CHECK (count >= 0)
);
`

// SQLiteStore persists samples in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, smp Sample) error {
	if err := validate(smp); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("add", err)
	}
	defer tx.Rollback()

	exists, err := sqliteExists(ctx, tx, smp.Key())
	if err != nil {
		return unavailable("add", err)
	}
	if exists {
		return ErrDuplicateKey
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO followers (date, count) VALUES (?, ?)", smp.Key(), smp.Count); err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicateKey
		}
		return unavailable("add", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("add", err)
	}
	return nil
}

func (s *SQLiteStore) AddBatch(ctx context.Context, samples []Sample) error {
	if err := validateBatch(samples); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("add batch", err)
	}
	defer tx.Rollback()

	for _, smp := range samples {
		exists, err := sqliteExists(ctx, tx, smp.Key())
		if err != nil {
			return unavailable("add batch", err)
		}
		if exists {
			return fmt.Errorf("%s: %w", smp.Key(), ErrDuplicateKey)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO followers (date, count) VALUES (?, ?)", smp.Key(), smp.Count); err != nil {
			if isSQLiteUnique(err) {
				return fmt.Errorf("%s: %w", smp.Key(), ErrDuplicateKey)
			}
			return unavailable("add batch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("add batch", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date, count FROM followers ORDER BY date ASC")
	if err != nil {
		return nil, unavailable("list", err)
	}
	return scanSQLRows(rows, "list")
}

func (s *SQLiteStore) ListPage(ctx context.Context, page, limit int) ([]Sample, int, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM followers").Scan(&total); err != nil {
		return nil, 0, unavailable("list page", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, count FROM followers ORDER BY date ASC LIMIT ? OFFSET ?",
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, unavailable("list page", err)
	}
	samples, err := scanSQLRows(rows, "list page")
	if err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Sample, error) {
	if n <= 0 {
		return []Sample{}, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT date, count FROM followers ORDER BY date DESC LIMIT ?", n)
	if err != nil {
		return nil, unavailable("recent", err)
	}
	samples, err := scanSQLRows(rows, "recent")
	if err != nil {
		return nil, err
	}
	reverse(samples)
	return samples, nil
}

func (s *SQLiteStore) Update(ctx context.Context, date, newDate time.Time, count int) error {
	if err := validate(Sample{Date: newDate, Count: count}); err != nil {
		return err
	}
	oldKey, newKey := date.Format(DateLayout), newDate.Format(DateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("update", err)
	}
	defer tx.Rollback()

	exists, err := sqliteExists(ctx, tx, oldKey)
	if err != nil {
		return unavailable("update", err)
	}
	if !exists {
		return ErrNotFound
	}

	if newKey != oldKey {
		taken, err := sqliteExists(ctx, tx, newKey)
		if err != nil {
			return unavailable("update", err)
		}
		if taken {
			return ErrDuplicateKey
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE followers SET date = ?, count = ? WHERE date = ?", newKey, count, oldKey); err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicateKey
		}
		return unavailable("update", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("update", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, date time.Time) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM followers WHERE date = ?", date.Format(DateLayout)); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM followers"); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func sqliteExists(ctx context.Context, tx *sql.Tx, key string) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM followers WHERE date = ?", key).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanSQLRows drains and closes rows.
func scanSQLRows(rows *sql.Rows, op string) ([]Sample, error) {
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, unavailable(op, err)
		}
		date, err := ParseDate(key)
		if err != nil {
			return nil, unavailable(op, err)
		}
		samples = append(samples, Sample{Date: date, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return samples, nil
}

func isSQLiteUnique(err error) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
