package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

// Set UNFILLED_TEST_POSTGRES_DSN to run, e.g.
// postgres://unfilled@localhost:5432/unfilled_test?sslmode=disable
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("UNFILLED_TEST_POSTGRES_DSN")
	if connStr == "" {
		t.Skip("UNFILLED_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	t.Cleanup(func() {
		db := store.GetDB()
		if db == nil {
			return
		}
		for _, table := range []string{"posts", "assets", "image_edits", "gallery_shares", "assignments", "kv"} {
			_, _ = db.Exec("DELETE FROM " + table)
		}
	})

	t.Run("KV quota", func(t *testing.T) {
		store.SetQuota(40)
		defer store.SetQuota(0)
		if err := store.SetItem(ctx, "k1", "0123456789"); err != nil {
			t.Fatalf("SetItem() error = %v", err)
		}
		if err := store.SetItem(ctx, "k2", "0123456789012345678901234567890"); !errors.Is(err, storage.ErrQuotaExceeded) {
			t.Errorf("SetItem() error = %v, want ErrQuotaExceeded", err)
		}
	})

	t.Run("Asset in use", func(t *testing.T) {
		now := time.Now()
		if err := store.AddAsset(ctx, models.Asset{ID: "pg-a1", Mime: "image/jpeg", CreatedAt: now}); err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}
		post := models.Post{ID: "pg-p1", AssetID: "pg-a1", Visibility: models.VisibilityPrivate, CreatedAt: now, UpdatedAt: now}
		if err := store.AddPost(ctx, post); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}
		if err := store.DeleteAsset(ctx, "pg-a1"); !errors.Is(err, storage.ErrAssetInUse) {
			t.Errorf("DeleteAsset() error = %v, want ErrAssetInUse", err)
		}
	})
}
