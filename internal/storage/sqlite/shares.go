package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

const shareColumns = "id, slug, title, description, visibility, is_default, created_at, updated_at"

func scanShare(row *sql.Row) (models.GalleryShare, error) {
	var sh models.GalleryShare
	var visibility, createdAt, updatedAt string
	var isDefault int
	err := row.Scan(&sh.ID, &sh.Slug, &sh.Title, &sh.Description, &visibility, &isDefault, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GalleryShare{}, storage.ErrNotFound
	}
	if err != nil {
		return models.GalleryShare{}, err
	}
	sh.Visibility = models.Visibility(visibility)
	sh.IsDefault = isDefault == 1
	sh.CreatedAt = parseTime(createdAt)
	sh.UpdatedAt = parseTime(updatedAt)
	return sh, nil
}

func (s *Store) GetDefaultShare(ctx context.Context) (models.GalleryShare, error) {
	return scanShare(s.db.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM gallery_shares WHERE is_default = 1 ORDER BY created_at LIMIT 1"))
}

func (s *Store) GetShareBySlug(ctx context.Context, slug string) (models.GalleryShare, error) {
	return scanShare(s.db.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM gallery_shares WHERE slug = ?", slug))
}

func (s *Store) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM gallery_shares WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) AddShare(ctx context.Context, sh models.GalleryShare) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_shares (`+shareColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.Slug, sh.Title, sh.Description, string(sh.Visibility), boolToInt(sh.IsDefault),
		formatTime(sh.CreatedAt), formatTime(sh.UpdatedAt))
	if isUniqueViolation(err) {
		return storage.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("failed to add share: %w", err)
	}
	return nil
}

func (s *Store) UpdateShare(ctx context.Context, sh models.GalleryShare) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gallery_shares SET slug = ?, title = ?, description = ?, visibility = ?, updated_at = ?
		WHERE id = ?`,
		sh.Slug, sh.Title, sh.Description, string(sh.Visibility), formatTime(sh.UpdatedAt), sh.ID)
	if isUniqueViolation(err) {
		return storage.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update share: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
