package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
)

// FileRepository stores the SeenSet as a sorted JSON array of keys.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load(_ context.Context) (SeenSet, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSeenSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	return NewSeenSet(keys...), nil
}

func (r *FileRepository) Save(_ context.Context, seen SeenSet) error {
	data, err := json.MarshalIndent(seen.Keys(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

func (r *FileRepository) Backend() Backend {
	return BackendFile
}

func (r *FileRepository) Close() error {
	return nil
}
