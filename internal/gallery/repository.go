// Package gallery manages photo posts and their image assets behind a
// Repository with a local and a hosted implementation.
package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

var (
	ErrNotFound     = storage.ErrNotFound
	ErrInvalidImage = errors.New("invalid image")
)

type Backend string

const (
	BackendLocal  Backend = "local"
	BackendHosted Backend = "hosted"
)

type CreatePostInput struct {
	Image []byte
	// Mime is sniffed from Image when empty.
	Mime       string
	Caption    string
	Visibility models.Visibility
}

// UpdatePostInput changes only the fields that are set.
type UpdatePostInput struct {
	Caption    *string
	Visibility *models.Visibility
}

type Repository interface {
	// ListPosts returns posts newest first with their assets.
	ListPosts(ctx context.Context, limit, offset int) ([]models.PostWithAsset, error)
	GetPost(ctx context.Context, id string) (models.PostWithAsset, error)
	CreatePost(ctx context.Context, in CreatePostInput) (models.PostWithAsset, error)
	UpdatePost(ctx context.Context, id string, in UpdatePostInput) (models.PostWithAsset, error)
	// DeletePost removes the post and then its asset.
	DeletePost(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// OpenAsset streams the image bytes of an asset.
	OpenAsset(ctx context.Context, asset models.Asset) (io.ReadCloser, error)
	Backend() Backend
}

// AssetURL is where the server exposes an asset's bytes.
func AssetURL(assetID string) string {
	return "/api/gallery/assets/" + assetID + "/raw"
}

// probe checks that data is an image and reads its dimensions.
func probe(data []byte, mime string) (mimeType string, width, height int, err error) {
	if len(data) == 0 {
		return "", 0, 0, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", 0, 0, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, mime)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return mime, cfg.Width, cfg.Height, nil
}

func normalizeLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = constants.DefaultPostLimit
	}
	return limit, max(offset, 0)
}

func newPost(assetID string, in CreatePostInput, now time.Time) models.Post {
	vis := in.Visibility
	if !vis.Valid() {
		vis = models.VisibilityPrivate
	}
	return models.Post{
		AssetID:    assetID,
		Caption:    strings.TrimSpace(in.Caption),
		Visibility: vis,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func applyUpdate(p models.Post, in UpdatePostInput, now time.Time) (models.Post, error) {
	if in.Caption != nil {
		p.Caption = strings.TrimSpace(*in.Caption)
	}
	if in.Visibility != nil {
		if !in.Visibility.Valid() {
			return p, fmt.Errorf("invalid visibility %q", *in.Visibility)
		}
		p.Visibility = *in.Visibility
	}
	p.UpdatedAt = now
	return p, nil
}

// joinPosts attaches each post's asset. Posts whose asset has vanished are
// skipped.
func joinPosts(ctx context.Context, store storage.Provider, posts []models.Post) ([]models.PostWithAsset, error) {
	out := make([]models.PostWithAsset, 0, len(posts))
	for _, p := range posts {
		a, err := store.GetAsset(ctx, p.AssetID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		a.Data = nil
		out = append(out, models.PostWithAsset{Post: p, Asset: a})
	}
	return out, nil
}

func getPost(ctx context.Context, store storage.Provider, id string) (models.PostWithAsset, error) {
	p, err := store.GetPost(ctx, id)
	if err != nil {
		return models.PostWithAsset{}, err
	}
	a, err := store.GetAsset(ctx, p.AssetID)
	if err != nil {
		return models.PostWithAsset{}, fmt.Errorf("failed to load asset for post %s: %w", id, err)
	}
	a.Data = nil
	return models.PostWithAsset{Post: p, Asset: a}, nil
}

// NewRepository picks the implementation for backend. The hosted backend
// needs a blob store.
func NewRepository(backend Backend, store storage.Provider, blobs BlobStore) (Repository, error) {
	switch backend {
	case "", BackendLocal:
		return NewLocalRepository(store), nil
	case BackendHosted:
		if blobs == nil {
			return nil, fmt.Errorf("hosted gallery requires a blob store")
		}
		return NewHostedRepository(store, blobs), nil
	}
	return nil, fmt.Errorf("unknown gallery backend %q", backend)
}
