package database

import (
	"context"
	"fmt"
)

type Options struct {
	Backend   Backend
	StatePath string
	DBPath    string
	RedisAddr string
	RedisKey  string
}

// Open returns the SeenRepository for the configured backend. Connection and
// migration failures are returned to the caller.
func Open(ctx context.Context, opts Options) (SeenRepository, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileRepository(opts.StatePath), nil
	case BackendSQLite:
		return NewSQLiteRepository(opts.DBPath)
	case BackendRedis:
		return NewRedisRepository(ctx, opts.RedisAddr, opts.RedisKey)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", opts.Backend)
	}
}
