package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres mirrors the SQLite layout in a jobradar_kv table.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres connects to dsn, verifies connectivity and ensures the table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS jobradar_kv (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		expires_at TIMESTAMPTZ
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating jobradar_kv table: %w", err)
	}

	return &Postgres{pool: pool, now: time.Now}, nil
}

func (p *Postgres) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := p.now().Add(ttl)
	return &t
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM jobradar_kv WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, p.now(),
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO jobradar_kv (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, p.expiry(ttl),
	)
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO jobradar_kv (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
		 WHERE jobradar_kv.expires_at IS NOT NULL AND jobradar_kv.expires_at <= $4`,
		key, value, p.expiry(ttl), p.now(),
	)
	if err != nil {
		return false, fmt.Errorf("conditional write of key %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM jobradar_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key FROM jobradar_kv
		 WHERE left(key, char_length($1)) = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		prefix, p.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys with prefix %s: %w", prefix, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}

func (p *Postgres) Purge(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM jobradar_kv WHERE expires_at IS NOT NULL AND expires_at <= $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("purging expired keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
