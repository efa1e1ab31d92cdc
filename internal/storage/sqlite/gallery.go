package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

func (s *Store) AddAsset(ctx context.Context, a models.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, mime, width, height, size, data, blob_key, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Mime, a.Width, a.Height, a.Size, a.Data, a.BlobKey, a.URL, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to add asset %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) GetAsset(ctx context.Context, id string) (models.Asset, error) {
	var a models.Asset
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mime, width, height, size, data, blob_key, url, created_at
		FROM assets WHERE id = ?`, id).
		Scan(&a.ID, &a.Mime, &a.Width, &a.Height, &a.Size, &a.Data, &a.BlobKey, &a.URL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var refs int
	if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM posts WHERE asset_id = ?", id).Scan(&refs); err != nil {
		return fmt.Errorf("failed to count asset references: %w", err)
	}
	if refs > 0 {
		return storage.ErrAssetInUse
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) CountAssets(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM assets").Scan(&n)
	return n, err
}

func (s *Store) AddPost(ctx context.Context, p models.Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, asset_id, caption, visibility, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.AssetID, p.Caption, string(p.Visibility), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add post %s: %w", p.ID, err)
	}
	return nil
}

func scanPost(row interface{ Scan(...any) error }) (models.Post, error) {
	var p models.Post
	var visibility, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.AssetID, &p.Caption, &visibility, &createdAt, &updatedAt); err != nil {
		return models.Post{}, err
	}
	p.Visibility = models.Visibility(visibility)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, asset_id, caption, visibility, created_at, updated_at
		FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asset_id, caption, visibility, created_at, updated_at
		FROM posts ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) UpdatePost(ctx context.Context, p models.Post) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET caption = ?, visibility = ?, updated_at = ? WHERE id = ?`,
		p.Caption, string(p.Visibility), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM posts").Scan(&n)
	return n, err
}
