package database

import (
	"context"
)

// SeenRepository persists the SeenSet between runs.
type SeenRepository interface {
	Load(ctx context.Context) (SeenSet, error)
	Save(ctx context.Context, seen SeenSet) error
	Backend() Backend
	Close() error
}

var (
	_ SeenRepository = (*FileRepository)(nil)
	_ SeenRepository = (*SQLiteRepository)(nil)
	_ SeenRepository = (*RedisRepository)(nil)
)
