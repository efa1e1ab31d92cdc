package daystore

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/unfilled/internal/constants"
)

// CoverKey is the storage key of a month cover, optionally per calendar mode.
func CoverKey(ym, mode string) string {
	if mode == "" {
		return constants.CoverKeyPrefix + ym
	}
	return constants.CoverKeyPrefix + ym + ":" + mode
}

// DefaultCover is the bundled cover image for a calendar mode.
func DefaultCover(mode string) string {
	switch mode {
	case "film":
		return "/defaults/film.jpg"
	case "instant":
		return "/defaults/instant.jpg"
	default:
		return "/defaults/poster.jpg"
	}
}

func validateYM(ym string) error {
	if _, err := time.Parse(constants.MonthFormat, ym); err != nil {
		return fmt.Errorf("invalid month %q: expected YYYY-MM", ym)
	}
	return nil
}

// GetCover returns the saved cover URL for a month, or the mode's default.
func (s *Store) GetCover(ctx context.Context, ym, mode string) (string, error) {
	if err := validateYM(ym); err != nil {
		return "", err
	}
	v, ok, err := s.kv.GetItem(ctx, CoverKey(ym, mode))
	if err != nil {
		return "", fmt.Errorf("failed to read cover for %s: %w", ym, err)
	}
	if !ok || v == "" {
		return DefaultCover(mode), nil
	}
	return v, nil
}

func (s *Store) SetCover(ctx context.Context, ym, mode, url string) error {
	if err := validateYM(ym); err != nil {
		return err
	}
	if err := s.kv.SetItem(ctx, CoverKey(ym, mode), url); err != nil {
		return fmt.Errorf("failed to save cover for %s: %w", ym, err)
	}
	return nil
}
