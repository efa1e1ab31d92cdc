package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/unfilled/internal/blob"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

// BlobStore is the part of blob.Store the hosted repository needs.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (blob.Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, blob.Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// HostedRepository keeps rows in the database and image bytes in a blob
// store.
type HostedRepository struct {
	store storage.Provider
	blobs BlobStore
	now   func() time.Time
}

func NewHostedRepository(store storage.Provider, blobs BlobStore) *HostedRepository {
	return &HostedRepository{store: store, blobs: blobs, now: time.Now}
}

func (r *HostedRepository) Backend() Backend { return BackendHosted }

func (r *HostedRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.PostWithAsset, error) {
	limit, offset = normalizeLimit(limit, offset)
	posts, err := r.store.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return joinPosts(ctx, r.store, posts)
}

func (r *HostedRepository) GetPost(ctx context.Context, id string) (models.PostWithAsset, error) {
	return getPost(ctx, r.store, id)
}

// CreatePost records the rows first and uploads second; a failed upload
// removes the rows again.
func (r *HostedRepository) CreatePost(ctx context.Context, in CreatePostInput) (models.PostWithAsset, error) {
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
		CreatedAt: now,
	}
	asset.BlobKey = "gallery/" + asset.ID + blob.ExtensionFor(mime)
	asset.URL = r.blobs.URL(asset.BlobKey)
	if err := r.store.AddAsset(ctx, asset); err != nil {
		return models.PostWithAsset{}, err
	}

	post := newPost(asset.ID, in, now)
	post.ID = uuid.NewString()
	if err := r.store.AddPost(ctx, post); err != nil {
		r.rollback(ctx, "", asset.ID)
		return models.PostWithAsset{}, err
	}

	if _, err := r.blobs.Put(ctx, asset.BlobKey, bytes.NewReader(in.Image), asset.Size, mime); err != nil {
		r.rollback(ctx, post.ID, asset.ID)
		return models.PostWithAsset{}, fmt.Errorf("failed to upload image: %w", err)
	}
	return models.PostWithAsset{Post: post, Asset: asset}, nil
}

func (r *HostedRepository) rollback(ctx context.Context, postID, assetID string) {
	if postID != "" {
		if err := r.store.DeletePost(ctx, postID); err != nil {
			logger.Warn("Failed to roll back post", "postId", postID, "error", err)
		}
	}
	if err := r.store.DeleteAsset(ctx, assetID); err != nil {
		logger.Warn("Failed to roll back asset", "assetId", assetID, "error", err)
	}
}

func (r *HostedRepository) UpdatePost(ctx context.Context, id string, in UpdatePostInput) (models.PostWithAsset, error) {
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

// DeletePost removes rows before the blob. A blob that cannot be removed is
// only logged.
func (r *HostedRepository) DeletePost(ctx context.Context, id string) error {
	pa, err := getPost(ctx, r.store, id)
	if err != nil {
		return err
	}
	if err := r.store.DeletePost(ctx, id); err != nil {
		return err
	}
	if err := r.store.DeleteAsset(ctx, pa.Asset.ID); err != nil {
		if errors.Is(err, storage.ErrAssetInUse) {
			return nil
		}
		return fmt.Errorf("failed to delete asset %s: %w", pa.Asset.ID, err)
	}
	if pa.Asset.BlobKey != "" {
		if err := r.blobs.Delete(ctx, pa.Asset.BlobKey); err != nil {
			logger.Warn("Failed to delete blob", "key", pa.Asset.BlobKey, "error", err)
		}
	}
	return nil
}

func (r *HostedRepository) Count(ctx context.Context) (int, error) {
	return r.store.CountPosts(ctx)
}

func (r *HostedRepository) OpenAsset(ctx context.Context, asset models.Asset) (io.ReadCloser, error) {
	if asset.BlobKey == "" {
		return nil, fmt.Errorf("asset %s has no blob", asset.ID)
	}
	rc, _, err := r.blobs.Get(ctx, asset.BlobKey)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("%w: blob for asset %s", ErrNotFound, asset.ID)
	}
	return rc, err
}
