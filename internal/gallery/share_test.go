package gallery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"quiet", true},
		{"soft-light-2", true},
		{"ab", false},
		{strings.Repeat("a", 41), false},
		{"Quiet", false},
		{"no spaces", false},
		{"gallery", false},
		{"api", false},
	}
	for _, tt := range tests {
		err := ValidateSlug(tt.slug)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateSlug(%q) = %v, want valid=%v", tt.slug, err, tt.valid)
		}
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidSlug)
		}
	}
}

func TestSlugHelpers(t *testing.T) {
	assert.Equal(t, "hush", SlugWithSuffix("hush", 1))
	assert.Equal(t, "hush-3", SlugWithSuffix("hush", 3))
	assert.True(t, IsFromWordPool(RandomSlug()))
	assert.False(t, IsFromWordPool("hush-2"))
	assert.Equal(t, "https://unfilled.app/g/hush", BuildShareURL("https://unfilled.app/", "hush"))
}

func TestShareService(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	svc := NewShareService(store)
	svc.pick = func() string { return "hush" }

	share, err := svc.GetOrCreateDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hush", share.Slug)
	assert.True(t, share.IsDefault)
	assert.Equal(t, models.VisibilityUnlisted, share.Visibility)

	again, err := svc.GetOrCreateDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, share.ID, again.ID, "the default share is reused")

	got, err := svc.GetBySlug(ctx, "hush")
	require.NoError(t, err)
	assert.Equal(t, share.ID, got.ID)

	renamed, err := svc.UpdateSlug(ctx, "slow-morning")
	require.NoError(t, err)
	assert.Equal(t, "slow-morning", renamed.Slug)
	_, err = svc.GetBySlug(ctx, "hush")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.UpdateSlug(ctx, "admin")
	assert.ErrorIs(t, err, ErrInvalidSlug)

	// Another share owning a slug blocks renaming onto it.
	require.NoError(t, store.AddShare(ctx, models.GalleryShare{
		ID: "other", Slug: "drift", Title: "x", Visibility: models.VisibilityPublic,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	_, err = svc.UpdateSlug(ctx, "drift")
	assert.ErrorIs(t, err, storage.ErrSlugTaken)

	public, err := svc.GetBySlug(ctx, "drift")
	require.NoError(t, err)
	assert.Equal(t, "other", public.ID)
}

func TestShareServiceSuffixesTakenSlugs(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	for i, slug := range []string{"warm", "warm-2"} {
		require.NoError(t, store.AddShare(ctx, models.GalleryShare{
			ID: string(rune('a' + i)), Slug: slug, Title: "x", Visibility: models.VisibilityUnlisted,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}))
	}

	svc := NewShareService(store)
	svc.pick = func() string { return "warm" }
	share, err := svc.GetOrCreateDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "warm-3", share.Slug)
}
