package storage

import (
	"context"

	"github.com/julianstephens/unfilled/internal/models"
)

// KV is a string key/value store with a byte quota, the shape day entries
// and month covers are persisted through. SetItem returns ErrQuotaExceeded
// when the write would push usage over the quota.
type KV interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Usage describes how much of the KV quota is in use.
type Usage struct {
	UsedBytes  int64 `json:"usedBytes"`
	QuotaBytes int64 `json:"quotaBytes"` // 0 means unlimited
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping(ctx context.Context) error
	// MigrationStatus reports current and latest schema versions.
	MigrationStatus() (current, latest int, err error)

	// Key/value
	KV
	SetQuota(bytes int64)
	Usage(ctx context.Context) (Usage, error)

	// Assets
	AddAsset(ctx context.Context, asset models.Asset) error
	GetAsset(ctx context.Context, id string) (models.Asset, error)
	// DeleteAsset fails with ErrAssetInUse while any post references id.
	DeleteAsset(ctx context.Context, id string) error
	CountAssets(ctx context.Context) (int, error)

	// Posts
	AddPost(ctx context.Context, post models.Post) error
	GetPost(ctx context.Context, id string) (models.Post, error)
	// ListPosts returns posts newest first.
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	UpdatePost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id string) error
	CountPosts(ctx context.Context) (int, error)

	// Image edits
	GetImageEdits(ctx context.Context, imageID, preset string) (models.ImageEdits, error)
	SaveImageEdits(ctx context.Context, edits models.ImageEdits) error

	// Gallery shares
	GetDefaultShare(ctx context.Context) (models.GalleryShare, error)
	GetShareBySlug(ctx context.Context, slug string) (models.GalleryShare, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	AddShare(ctx context.Context, share models.GalleryShare) error
	UpdateShare(ctx context.Context, share models.GalleryShare) error

	// Assignments
	SetAssignment(ctx context.Context, a models.Assignment) error
	GetAssignments(ctx context.Context) ([]models.Assignment, error)

	// Utils
	GetConfigPath() string
}
