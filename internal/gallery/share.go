package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

// ShareService manages the single gallery-wide share link.
type ShareService struct {
	store storage.Provider
	now   func() time.Time
	// pick chooses the base slug; swapped in tests.
	pick func() string
}

func NewShareService(store storage.Provider) *ShareService {
	return &ShareService{store: store, now: time.Now, pick: RandomSlug}
}

// GetOrCreateDefault returns the default share, creating one with a slug
// from the word pool when none exists.
func (s *ShareService) GetOrCreateDefault(ctx context.Context) (models.GalleryShare, error) {
	share, err := s.store.GetDefaultShare(ctx)
	if err == nil {
		return share, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.GalleryShare{}, fmt.Errorf("failed to load gallery share: %w", err)
	}

	slug, err := s.findAvailableSlug(ctx)
	if err != nil {
		return models.GalleryShare{}, err
	}
	now := s.now().UTC()
	share = models.GalleryShare{
		ID:         uuid.NewString(),
		Slug:       slug,
		Title:      constants.DefaultShareTitle,
		Visibility: models.VisibilityUnlisted,
		IsDefault:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.AddShare(ctx, share); err != nil {
		return models.GalleryShare{}, fmt.Errorf("failed to create gallery share: %w", err)
	}
	logger.Info("Created gallery share", "slug", slug)
	return share, nil
}

func (s *ShareService) findAvailableSlug(ctx context.Context) (string, error) {
	base := s.pick()
	for attempt := 1; attempt < constants.MaxSlugAttempts; attempt++ {
		slug := SlugWithSuffix(base, attempt)
		taken, err := s.store.SlugExists(ctx, slug, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return fmt.Sprintf("gallery-%d", s.now().UnixMilli()), nil
}

// UpdateSlug renames the default share's slug.
func (s *ShareService) UpdateSlug(ctx context.Context, slug string) (models.GalleryShare, error) {
	slug = strings.TrimSpace(slug)
	if err := ValidateSlug(slug); err != nil {
		return models.GalleryShare{}, err
	}
	share, err := s.GetOrCreateDefault(ctx)
	if err != nil {
		return models.GalleryShare{}, err
	}
	if share.Slug == slug {
		return share, nil
	}

	taken, err := s.store.SlugExists(ctx, slug, share.ID)
	if err != nil {
		return models.GalleryShare{}, err
	}
	if taken {
		return models.GalleryShare{}, storage.ErrSlugTaken
	}

	share.Slug = slug
	share.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateShare(ctx, share); err != nil {
		return models.GalleryShare{}, err
	}
	return share, nil
}

// GetBySlug returns a share that is visible through its link.
func (s *ShareService) GetBySlug(ctx context.Context, slug string) (models.GalleryShare, error) {
	share, err := s.store.GetShareBySlug(ctx, slug)
	if err != nil {
		return models.GalleryShare{}, err
	}
	if share.Visibility != models.VisibilityUnlisted && share.Visibility != models.VisibilityPublic {
		return models.GalleryShare{}, storage.ErrNotFound
	}
	return share, nil
}

func BuildShareURL(origin, slug string) string {
	return strings.TrimSuffix(origin, "/") + "/g/" + slug
}
