package kv

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects a backend and carries its connection settings.
type Options struct {
	Backend     string
	RedisURL    string
	SQLitePath  string
	PostgresDSN string
}

// Open connects to the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case BackendRedis:
		s, err = NewRedis(ctx, opts.RedisURL)
	case "", BackendSQLite:
		s, err = NewSQLite(opts.SQLitePath)
	case BackendPostgres:
		s, err = NewPostgres(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", opts.Backend, err)
	}
	return s, nil
}
