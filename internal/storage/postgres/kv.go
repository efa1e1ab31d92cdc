package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/unfilled/internal/storage"
)

const usageExpr = "COALESCE(SUM(octet_length(key) + octet_length(value)), 0)"

func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if quota := s.quota.Load(); quota > 0 {
		// Serialize quota checks across connections.
		if _, err := tx.ExecContext(ctx, "LOCK TABLE kv IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("failed to lock kv: %w", err)
		}
		var used, old int64
		if err := tx.QueryRowContext(ctx, "SELECT "+usageExpr+" FROM kv").Scan(&used); err != nil {
			return fmt.Errorf("failed to measure usage: %w", err)
		}
		if err := tx.QueryRowContext(ctx, "SELECT "+usageExpr+" FROM kv WHERE key = $1", key).Scan(&old); err != nil {
			return fmt.Errorf("failed to measure existing value: %w", err)
		}
		if used-old+storage.EntrySize(key, value) > quota {
			return storage.ErrQuotaExceeded
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE left(key, length($1)) = $1 ORDER BY key", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) SetQuota(bytes int64) {
	s.quota.Store(bytes)
}

func (s *Store) Usage(ctx context.Context) (storage.Usage, error) {
	var used int64
	if err := s.db.QueryRowContext(ctx, "SELECT "+usageExpr+" FROM kv").Scan(&used); err != nil {
		return storage.Usage{}, fmt.Errorf("failed to measure usage: %w", err)
	}
	return storage.Usage{UsedBytes: used, QuotaBytes: s.quota.Load()}, nil
}
