package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetConfig returns the stored value for path. ok is false when the path
// has no stored value.
func (s *Store) GetConfig(ctx context.Context, path string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM core_config WHERE path = ?`, path).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %s: %w", path, err)
	}
	return value, true, nil
}

// SetConfig stores value for path.
func (s *Store) SetConfig(ctx context.Context, path, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO core_config (path, value) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET value = excluded.value
	`, path, value)
	if err != nil {
		return fmt.Errorf("set config %s: %w", path, err)
	}
	return nil
}

// DeleteConfig removes the stored value so the path inherits its default.
func (s *Store) DeleteConfig(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM core_config WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete config %s: %w", path, err)
	}
	return nil
}
