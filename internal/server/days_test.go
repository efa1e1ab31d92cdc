package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/diagnostics"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/models"
)

func TestDayRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/days/2025-06-10?mode=film", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decodeBody[models.DayEntry](t, rec)
	assert.Equal(t, models.LifecycleEmpty, empty.Lifecycle)
	assert.Equal(t, "film", empty.Mode)

	entry := models.NewEmptyDayEntry("2025-06-10", "film")
	entry.Tasks = []models.Task{models.NewTask("scout the pier")}
	rec = env.doJSON(t, http.MethodPut, "/api/days/2025-06-10", entry)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decodeBody[models.DayEntry](t, rec)
	assert.Equal(t, models.LifecycleActive, saved.Lifecycle)

	rec = env.do(t, http.MethodGet, "/api/days", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Days  []string `json:"days"`
		Count int      `json:"count"`
	}](t, rec)
	assert.Equal(t, []string{"2025-06-10"}, list.Days)

	rec = env.do(t, http.MethodDelete, "/api/days/2025-06-10", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{events.DaySaved, events.DayDeleted}, env.events.Names())
}

func TestPutDayValidation(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPut, "/api/days/2025-13-01", models.DayEntry{}).Code)
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodGet, "/api/days/undefined-undefined", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPut, "/api/days/2025-06-01", models.DayEntry{ID: "2025-06-02"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/days/2025-06-01", nil, "application/json").Code)
}

func TestPutDayDebounced(t *testing.T) {
	env := newTestEnv(t)

	entry := models.NewEmptyDayEntry("2025-06-11", "grid")
	entry.Notes = []models.Note{models.NewNote("golden hour at 8:40", models.NoteFree)}
	rec := env.doJSON(t, http.MethodPut, "/api/days/2025-06-11?debounce=1", entry)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// A pending write is visible before it lands.
	rec = env.do(t, http.MethodGet, "/api/days/2025-06-11", nil, "")
	assert.Len(t, decodeBody[models.DayEntry](t, rec).Notes, 1)

	require.Eventually(t, func() bool { return env.days.Pending() == 0 }, 2*time.Second, 10*time.Millisecond)
	ids, err := env.days.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-11"}, ids)
}

func TestPutDayStorageFull(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetQuota(16)

	rec := env.doJSON(t, http.MethodPut, "/api/days/2025-06-12", models.NewEmptyDayEntry("2025-06-12", "grid"))
	assert.Equal(t, http.StatusInsufficientStorage, rec.Code)
	assert.Equal(t, "Storage full", decodeBody[errorBody](t, rec).Error)
}

func TestCovers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/covers/2025-06", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/defaults/poster.jpg", decodeBody[map[string]string](t, rec)["url"])

	rec = env.doJSON(t, http.MethodPut, "/api/covers/2025-06", map[string]string{"url": "/uploads/june.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/covers/2025-06", nil, "")
	assert.Equal(t, "/uploads/june.jpg", decodeBody[map[string]string](t, rec)["url"])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/covers/june", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPut, "/api/covers/2025-06", map[string]string{}).Code)
}

func TestStorageDiagnostics(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"2025-06-01", "2025-06-02"} {
		require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPut, "/api/days/"+id, models.NewEmptyDayEntry(id, "grid")).Code)
	}

	rec := env.do(t, http.MethodGet, "/api/debug/storage", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[diagnostics.Report](t, rec)
	assert.Equal(t, 2, report.Days.Count)
	assert.Greater(t, report.Usage.UsedBytes, int64(0))

	rec = env.doJSON(t, http.MethodPost, "/api/debug/storage/clear", map[string]bool{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/debug/storage/clear", map[string]bool{"confirm": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[map[string]int](t, rec)["cleared"])
	assert.Contains(t, env.events.Names(), events.StorageCleared)
}
