package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

const shareColumns = "id, slug, title, description, visibility, is_default, created_at, updated_at"

func scanShare(row *sql.Row) (models.GalleryShare, error) {
	var sh models.GalleryShare
	var visibility string
	err := row.Scan(&sh.ID, &sh.Slug, &sh.Title, &sh.Description, &visibility, &sh.IsDefault, &sh.CreatedAt, &sh.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GalleryShare{}, storage.ErrNotFound
	}
	if err != nil {
		return models.GalleryShare{}, err
	}
	sh.Visibility = models.Visibility(visibility)
	return sh, nil
}

func (s *Store) GetDefaultShare(ctx context.Context) (models.GalleryShare, error) {
	return scanShare(s.db.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM gallery_shares WHERE is_default ORDER BY created_at LIMIT 1"))
}

func (s *Store) GetShareBySlug(ctx context.Context, slug string) (models.GalleryShare, error) {
	return scanShare(s.db.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM gallery_shares WHERE slug = $1", slug))
}

func (s *Store) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM gallery_shares WHERE slug = $1 AND id <> $2)", slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (s *Store) AddShare(ctx context.Context, sh models.GalleryShare) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_shares (`+shareColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sh.ID, sh.Slug, sh.Title, sh.Description, string(sh.Visibility), sh.IsDefault,
		sh.CreatedAt.UTC(), sh.UpdatedAt.UTC())
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
		UPDATE gallery_shares SET slug = $1, title = $2, description = $3, visibility = $4, updated_at = $5
		WHERE id = $6`,
		sh.Slug, sh.Title, sh.Description, string(sh.Visibility), sh.UpdatedAt.UTC(), sh.ID)
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
