package edits

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, store.Init())

	out := &bytes.Buffer{}
	ctx := &cli.Context{Config: config.DefaultConfig(), ConfigPath: filepath.Join(dir, "config.yaml"), Store: store, Stdout: out}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, out
}

func ptr(v float64) *float64 { return &v }

func TestEditsSetMergesFlags(t *testing.T) {
	bg := context.Background()
	ctx, _ := setupTestContext(t)

	require.NoError(t, (&EditsSetCmd{ImageID: "2024-05-05", Preset: "phone_high", CropX: ptr(0.25), Zoom: ptr(2)}).Run(ctx))
	require.NoError(t, (&EditsSetCmd{ImageID: "2024-05-05", Preset: "phone_high", Rotation: ptr(450)}).Run(ctx))

	got, err := ctx.Store.GetImageEdits(bg, "2024-05-05", "phone_high")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got.CropX)
	assert.Equal(t, 0.5, got.CropY)
	assert.Equal(t, 2.0, got.Zoom)
	assert.Equal(t, 90.0, got.Rotation)
	assert.Equal(t, models.FitCover, got.FitMode)
}

func TestEditsSetValidation(t *testing.T) {
	ctx, _ := setupTestContext(t)

	tests := []struct {
		name string
		cmd  EditsSetCmd
	}{
		{"unknown preset", EditsSetCmd{ImageID: "a", Preset: "watch"}},
		{"crop outside frame", EditsSetCmd{ImageID: "a", Preset: "phone_high", CropX: ptr(1.5)}},
		{"zero zoom", EditsSetCmd{ImageID: "a", Preset: "phone_high", Zoom: ptr(0)}},
		{"bad fit", EditsSetCmd{ImageID: "a", Preset: "phone_high", Fit: "stretch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("EditsSetCmd.Run() error = nil, want error")
			}
		})
	}
}

func TestEditsShowDefaults(t *testing.T) {
	ctx, out := setupTestContext(t)

	require.NoError(t, (&EditsShowCmd{ImageID: "2024-05-06", Preset: "desktop_2k"}).Run(ctx))
	assert.Contains(t, out.String(), `"cropX": 0.5`)
	assert.Contains(t, out.String(), `"fitMode": "cover"`)

	assert.Error(t, (&EditsShowCmd{ImageID: "2024-05-06", Preset: "nope"}).Run(ctx))
}
