package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// SQLite keeps keys in a single table with an optional expiry timestamp
// (unix nanoseconds). Expired rows are invisible to reads and are removed by Purge.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) a SQLite database at dbPath and ensures the
// kv table exists.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; concurrent writers on separate connections hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) expiry(ttl time.Duration) any {
	if ttl <= 0 {
		return nil
	}
	return s.now().Add(ttl).UnixNano()
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)",
		key, s.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, s.expiry(ttl),
	)
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

// SetNX inserts the row, or takes over an expired one, in a single statement.
func (s *SQLite) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
		 WHERE kv.expires_at IS NOT NULL AND kv.expires_at <= ?`,
		key, value, s.expiry(ttl), s.now().UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("conditional write of key %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("conditional write of key %s: %w", key, err)
	}
	return n == 1, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv
		 WHERE substr(key, 1, ?) = ? AND (expires_at IS NULL OR expires_at > ?)`,
		utf8.RuneCountInString(prefix), prefix, s.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys with prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("listing keys with prefix %s: %w", prefix, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Purge deletes expired rows and returns how many were removed.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?",
		s.now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging expired keys: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
