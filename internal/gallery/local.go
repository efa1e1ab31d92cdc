package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

// LocalRepository keeps rows and image bytes in the primary database.
type LocalRepository struct {
	store storage.Provider
	now   func() time.Time
}

func NewLocalRepository(store storage.Provider) *LocalRepository {
	return &LocalRepository{store: store, now: time.Now}
}

func (r *LocalRepository) Backend() Backend { return BackendLocal }

func (r *LocalRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.PostWithAsset, error) {
	limit, offset = normalizeLimit(limit, offset)
	posts, err := r.store.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return joinPosts(ctx, r.store, posts)
}

func (r *LocalRepository) GetPost(ctx context.Context, id string) (models.PostWithAsset, error) {
	return getPost(ctx, r.store, id)
}

func (r *LocalRepository) CreatePost(ctx context.Context, in CreatePostInput) (models.PostWithAsset, error) {
	mime, w, h, err := probe(in.Image, in.Mime)
	if err != nil {
		return models.PostWithAsset{}, err
	}
	now := r.now().UTC()

	asset := models.Asset{
		ID:        uuid.NewString(),
		Mime:      mime,
		Width:     w,
		Height:    h,
		Size:      int64(len(in.Image)),
		Data:      in.Image,
		CreatedAt: now,
	}
	asset.URL = AssetURL(asset.ID)
	if err := r.store.AddAsset(ctx, asset); err != nil {
		return models.PostWithAsset{}, err
	}

	post := newPost(asset.ID, in, now)
	post.ID = uuid.NewString()
	if err := r.store.AddPost(ctx, post); err != nil {
		if derr := r.store.DeleteAsset(ctx, asset.ID); derr != nil {
			logger.Warn("Failed to remove orphaned asset", "assetId", asset.ID, "error", derr)
		}
		return models.PostWithAsset{}, err
	}

	asset.Data = nil
	return models.PostWithAsset{Post: post, Asset: asset}, nil
}

func (r *LocalRepository) UpdatePost(ctx context.Context, id string, in UpdatePostInput) (models.PostWithAsset, error) {
	p, err := r.store.GetPost(ctx, id)
	if err != nil {
		return models.PostWithAsset{}, err
	}
	if p, err = applyUpdate(p, in, r.now().UTC()); err != nil {
		return models.PostWithAsset{}, err
	}
	if err := r.store.UpdatePost(ctx, p); err != nil {
		return models.PostWithAsset{}, err
	}
	return getPost(ctx, r.store, id)
}

func (r *LocalRepository) DeletePost(ctx context.Context, id string) error {
	p, err := r.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.DeletePost(ctx, id); err != nil {
		return err
	}
	if err := r.store.DeleteAsset(ctx, p.AssetID); err != nil && !errors.Is(err, storage.ErrAssetInUse) {
		return fmt.Errorf("failed to delete asset %s: %w", p.AssetID, err)
	}
	return nil
}

func (r *LocalRepository) Count(ctx context.Context) (int, error) {
	return r.store.CountPosts(ctx)
}

func (r *LocalRepository) OpenAsset(ctx context.Context, asset models.Asset) (io.ReadCloser, error) {
	if asset.Data == nil {
		full, err := r.store.GetAsset(ctx, asset.ID)
		if err != nil {
			return nil, err
		}
		asset = full
	}
	return io.NopCloser(bytes.NewReader(asset.Data)), nil
}
