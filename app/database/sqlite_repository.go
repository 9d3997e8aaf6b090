package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps the SeenSet in a seen_items table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("Database migrations applied", "path", path, "version", version, "dirty", dirty)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (SeenSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM seen_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	seen := NewSeenSet()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan seen item row: %w", err)
		}
		seen.MarkSeen(key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seen items: %w", err)
	}

	return seen, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, seen SeenSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO seen_items (key) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, key := range seen.Keys() {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			return fmt.Errorf("failed to store seen item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seen items: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Backend() Backend {
	return BackendSQLite
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
