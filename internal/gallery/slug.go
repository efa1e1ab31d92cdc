package gallery

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"

	"github.com/julianstephens/unfilled/internal/constants"
)

var ErrInvalidSlug = errors.New("invalid slug")

var wordPool = []string{
	"unfilled",
	"not-yet",
	"still",
	"warm",
	"quiet",
	"lingering",
	"afterglow",
	"hush",
	"drift",
	"soft-light",
	"slow-morning",
}

// Paths the web app routes itself.
var reservedSlugs = []string{
	"month", "calendar", "gallery", "preview", "api", "login",
	"admin", "u", "s", "p", "g", "library",
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func ValidateSlug(slug string) error {
	if len(slug) < constants.MinSlugLength || len(slug) > constants.MaxSlugLength {
		return fmt.Errorf("%w: slug must be %d-%d characters", ErrInvalidSlug, constants.MinSlugLength, constants.MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug can only contain lowercase letters, numbers, and hyphens", ErrInvalidSlug)
	}
	if slices.Contains(reservedSlugs, slug) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSlug, slug)
	}
	return nil
}

// RandomSlug picks a word from the pool.
func RandomSlug() string {
	return wordPool[rand.IntN(len(wordPool))]
}

// SlugWithSuffix returns base for the first attempt and base-N after that.
func SlugWithSuffix(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

func IsFromWordPool(slug string) bool {
	return slices.Contains(wordPool, slug)
}
