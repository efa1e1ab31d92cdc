package exports

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, store.Init())

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	out := &bytes.Buffer{}
	ctx := &cli.Context{Config: cfg, ConfigPath: filepath.Join(dir, "config.yaml"), Store: store, Stdout: out}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, out, dir
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExportImageCmd(t *testing.T) {
	tests := []struct {
		name   string
		preset string
		fit    string
		wantW  int
		wantH  int
	}{
		{"cover desktop", "desktop_1080p", "cover", 1920, 1080},
		{"contain phone", "phone_compat", "contain", 1080, 1920},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out, dir := setupTestContext(t)
			src := filepath.Join(dir, "src.png")
			writePNG(t, src, 400, 300)
			dst := filepath.Join(dir, "out", "wall.jpg")

			cmd := &ExportImageCmd{File: src, Day: "2024-03-01", Preset: tt.preset, Fit: tt.fit, Out: dst}
			require.NoError(t, cmd.Run(ctx))

			f, err := os.Open(dst)
			require.NoError(t, err)
			defer f.Close()
			cfg, format, err := image.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("exported size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
			assert.Contains(t, out.String(), "✓ Wrote")
		})
	}
}

func TestExportImageCmdErrors(t *testing.T) {
	ctx, _, dir := setupTestContext(t)
	src := filepath.Join(dir, "src.png")
	writePNG(t, src, 10, 10)

	assert.Error(t, (&ExportImageCmd{File: src, Day: "today", Preset: "watch", Fit: "cover"}).Run(ctx))
	assert.Error(t, (&ExportImageCmd{File: src, Day: "today", Preset: "phone_high", Fit: "contain", Background: "teal"}).Run(ctx))

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	assert.Error(t, (&ExportImageCmd{File: junk, Day: "today", Preset: "phone_high", Fit: "contain", Out: filepath.Join(dir, "x.jpg")}).Run(ctx))
}

func TestExportMonthCmd(t *testing.T) {
	ctx, out, dir := setupTestContext(t)
	dst := filepath.Join(dir, "june.pdf")

	require.NoError(t, (&ExportMonthCmd{Year: "2024", Month: "6", Mode: "grid", Out: dst}).Run(ctx))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output is not a PDF")
	assert.Contains(t, out.String(), dst)

	assert.Error(t, (&ExportMonthCmd{Month: "13", Out: dst}).Run(ctx))
	assert.Error(t, (&ExportMonthCmd{Month: "june", Out: dst}).Run(ctx))
}

func TestExportPresetsCmd(t *testing.T) {
	ctx, out, _ := setupTestContext(t)
	require.NoError(t, (&ExportPresetsCmd{}).Run(ctx))
	for _, id := range []string{"phone_high", "phone_compat", "desktop_1080p", "desktop_2k"} {
		assert.Contains(t, out.String(), id)
	}
}
