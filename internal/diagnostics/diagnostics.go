// Package diagnostics reports on day-entry storage and lets operators wipe
// it. The HTTP debug routes and the debug command both go through Service.
package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/storage"
)

// usageWarnPercent is the quota share above which Report warns.
const usageWarnPercent = 80

type Service interface {
	Report(ctx context.Context) (Report, error)
	// ClearDays deletes every day entry and returns the count removed.
	ClearDays(ctx context.Context) (int, error)
}

// Days is the part of the day store diagnostics needs.
type Days interface {
	Stats(ctx context.Context) (daystore.Stats, error)
	ClearAll(ctx context.Context) (int, error)
	Pending() int
}

// UsageReporter reports KV usage against quota.
type UsageReporter interface {
	Usage(ctx context.Context) (storage.Usage, error)
}

// PostCounter counts gallery posts.
type PostCounter interface {
	Count(ctx context.Context) (int, error)
}

type Report struct {
	GeneratedAt   time.Time      `json:"generatedAt"`
	Days          daystore.Stats `json:"days"`
	Usage         storage.Usage  `json:"usage"`
	UsagePercent  float64        `json:"usagePercent"` // 0 when unlimited
	PendingWrites int            `json:"pendingWrites"`
	GalleryPosts  int            `json:"galleryPosts"`
	Warnings      []string       `json:"warnings"`
}

type service struct {
	days  Days
	usage UsageReporter
	posts PostCounter
	now   func() time.Time
}

// New builds a Service. usage and posts may be nil.
func New(days Days, usage UsageReporter, posts PostCounter) Service {
	return &service{days: days, usage: usage, posts: posts, now: time.Now}
}

func (s *service) Report(ctx context.Context) (Report, error) {
	stats, err := s.days.Stats(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to collect day stats: %w", err)
	}

	r := Report{
		GeneratedAt:   s.now().UTC(),
		Days:          stats,
		PendingWrites: s.days.Pending(),
		Warnings:      []string{},
	}

	if s.usage != nil {
		u, err := s.usage.Usage(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("failed to read storage usage: %w", err)
		}
		r.Usage = u
		if u.QuotaBytes > 0 {
			r.UsagePercent = float64(u.UsedBytes) / float64(u.QuotaBytes) * 100
			if r.UsagePercent >= usageWarnPercent {
				r.Warnings = append(r.Warnings, fmt.Sprintf("storage is %.0f%% full; the oldest days will be evicted on the next failed save", r.UsagePercent))
			}
		}
	}

	if s.posts != nil {
		n, err := s.posts.Count(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("failed to count gallery posts: %w", err)
		}
		r.GalleryPosts = n
	}

	var large []string
	for _, e := range stats.Entries {
		if e.SizeKB*1024 > constants.DayEntryWarnBytes {
			large = append(large, fmt.Sprintf("day %s is %.1f KB", e.DayID, e.SizeKB))
		}
	}
	sort.Strings(large)
	r.Warnings = append(r.Warnings, large...)

	return r, nil
}

func (s *service) ClearDays(ctx context.Context) (int, error) {
	n, err := s.days.ClearAll(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to clear day entries: %w", err)
	}
	logger.Warn("All day entries cleared", "count", n)
	return n, nil
}
