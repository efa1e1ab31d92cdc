package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

type fixedPosts int

func (f fixedPosts) Count(context.Context) (int, error) { return int(f), nil }

type brokenUsage struct{}

func (brokenUsage) Usage(context.Context) (storage.Usage, error) {
	return storage.Usage{}, errors.New("disk on fire")
}

func seed(t *testing.T, kv *storage.MemoryKV, n int) *daystore.Store {
	t.Helper()
	ds := daystore.New(kv, daystore.Options{})
	t.Cleanup(func() { ds.Close() })
	for i := 1; i <= n; i++ {
		e := models.NewEmptyDayEntry(fmt.Sprintf("2025-06-%02d", i), "grid")
		_, err := ds.Save(context.Background(), e)
		require.NoError(t, err)
	}
	return ds
}

func TestReport(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	ds := seed(t, kv, 3)

	svc := New(ds, kv, fixedPosts(7))
	r, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, r.Days.Count)
	assert.Equal(t, 7, r.GalleryPosts)
	assert.Greater(t, r.Usage.UsedBytes, int64(0))
	assert.Zero(t, r.UsagePercent, "unlimited quota has no percentage")
	assert.Empty(t, r.Warnings)
	assert.WithinDuration(t, time.Now(), r.GeneratedAt, time.Minute)
}

func TestReportWarnsNearQuota(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	ds := seed(t, kv, 2)
	u, err := kv.Usage(context.Background())
	require.NoError(t, err)
	kv.SetQuota(u.UsedBytes + 1)

	r, err := New(ds, kv, nil).Report(context.Background())
	require.NoError(t, err)
	assert.Greater(t, r.UsagePercent, 99.0)
	require.Len(t, r.Warnings, 1)
	assert.True(t, strings.HasPrefix(r.Warnings[0], "storage is"))
}

func TestReportWarnsOnLargeDays(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	ds := daystore.New(kv, daystore.Options{})
	defer ds.Close()
	big := models.NewEmptyDayEntry("2025-06-09", "grid")
	for i := 0; i < 50; i++ {
		big.Notes = append(big.Notes, models.Note{ID: fmt.Sprintf("note-%040d", i), Text: strings.Repeat("x", 500)})
	}
	for i := 0; i < 100; i++ {
		big.Tasks = append(big.Tasks, models.Task{ID: fmt.Sprintf("task-%040d", i), Text: strings.Repeat("y", 200)})
	}
	_, err := ds.Save(context.Background(), big)
	require.NoError(t, err)

	r, err := New(ds, nil, nil).Report(context.Background())
	require.NoError(t, err)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "day 2025-06-09")
}

func TestReportPropagatesErrors(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	ds := seed(t, kv, 1)
	_, err := New(ds, brokenUsage{}, nil).Report(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestClearDays(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	ds := seed(t, kv, 4)
	svc := New(ds, kv, nil)

	n, err := svc.ClearDays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	r, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Zero(t, r.Days.Count)
	assert.Zero(t, r.Usage.UsedBytes)
}
