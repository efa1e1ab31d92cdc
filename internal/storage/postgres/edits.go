package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

func (s *Store) GetImageEdits(ctx context.Context, imageID, preset string) (models.ImageEdits, error) {
	var e models.ImageEdits
	var fitMode string
	err := s.db.QueryRowContext(ctx, `
		SELECT image_id, preset, crop_x, crop_y, zoom, rotation, fit_mode, updated_at
		FROM image_edits WHERE image_id = $1 AND preset = $2`, imageID, preset).
		Scan(&e.ImageID, &e.Preset, &e.CropX, &e.CropY, &e.Zoom, &e.Rotation, &fitMode, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ImageEdits{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ImageEdits{}, fmt.Errorf("failed to get edits for %s/%s: %w", imageID, preset, err)
	}
	e.FitMode = models.FitMode(fitMode)
	return e, nil
}

func (s *Store) SaveImageEdits(ctx context.Context, e models.ImageEdits) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO image_edits (image_id, preset, crop_x, crop_y, zoom, rotation, fit_mode, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (image_id, preset) DO UPDATE SET
			crop_x = EXCLUDED.crop_x, crop_y = EXCLUDED.crop_y, zoom = EXCLUDED.zoom,
			rotation = EXCLUDED.rotation, fit_mode = EXCLUDED.fit_mode, updated_at = EXCLUDED.updated_at`,
		e.ImageID, e.Preset, e.CropX, e.CropY, e.Zoom, e.Rotation, string(e.FitMode), e.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save edits for %s/%s: %w", e.ImageID, e.Preset, err)
	}
	return nil
}
