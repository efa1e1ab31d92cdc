package sqlite

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
	var fitMode, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT image_id, preset, crop_x, crop_y, zoom, rotation, fit_mode, updated_at
		FROM image_edits WHERE image_id = ? AND preset = ?`, imageID, preset).
		Scan(&e.ImageID, &e.Preset, &e.CropX, &e.CropY, &e.Zoom, &e.Rotation, &fitMode, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ImageEdits{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ImageEdits{}, fmt.Errorf("failed to get edits for %s/%s: %w", imageID, preset, err)
	}
	e.FitMode = models.FitMode(fitMode)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func (s *Store) SaveImageEdits(ctx context.Context, e models.ImageEdits) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO image_edits (image_id, preset, crop_x, crop_y, zoom, rotation, fit_mode, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(image_id, preset) DO UPDATE SET
			crop_x = excluded.crop_x, crop_y = excluded.crop_y, zoom = excluded.zoom,
			rotation = excluded.rotation, fit_mode = excluded.fit_mode, updated_at = excluded.updated_at`,
		e.ImageID, e.Preset, e.CropX, e.CropY, e.Zoom, e.Rotation, string(e.FitMode), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save edits for %s/%s: %w", e.ImageID, e.Preset, err)
	}
	return nil
}
