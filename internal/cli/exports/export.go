package exports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/export"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

type ExportCmd struct {
	Image   ExportImageCmd   `cmd:"" help:"Render a day photo as a device wallpaper."`
	Month   ExportMonthCmd   `cmd:"" help:"Render a month calendar as a PDF."`
	Presets ExportPresetsCmd `cmd:"" help:"List wallpaper presets."`
}

type ExportImageCmd struct {
	File       string `arg:"" type:"existingfile" help:"Source image."`
	Day        string `default:"today" help:"Day the image belongs to; its saved crop is applied."`
	Preset     string `default:"phone_high" help:"Target preset (see 'export presets')."`
	Fit        string `default:"cover" enum:"cover,contain" help:"cover crops to fill, contain letterboxes."`
	Background string `help:"Letterbox color for contain, e.g. #000000."`
	Out        string `short:"o" help:"Output file. Defaults to unfilled-day-<day>-<preset>.jpg."`
}

func (c *ExportImageCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	preset, ok := export.GetPreset(c.Preset)
	if !ok {
		return fmt.Errorf("invalid preset %q", c.Preset)
	}
	bgColor := ctx.Config.Export.Background
	if c.Background != "" {
		bgColor = c.Background
	}
	background, err := export.ParseColor(bgColor)
	if err != nil {
		return fmt.Errorf("invalid background: %w", err)
	}

	img, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	req := export.RenderRequest{
		Image:      img,
		Width:      preset.Width,
		Height:     preset.Height,
		Fit:        models.ParseFitMode(c.Fit),
		Background: background,
	}
	if req.Fit == models.FitCover {
		edits, err := savedEdits(bg, ctx.Store, dayID, preset.ID)
		if err != nil {
			return err
		}
		req.Edits = &edits
	}

	r := export.NewRenderer(ctx.Config.Export.JPEGQuality)
	r.OnFallback = func(err error) {
		ctx.Printf("⚠ Crop failed, exported letterboxed instead: %v\n", err)
	}
	out, err := r.Render(bg, req)
	if err != nil {
		return fmt.Errorf("failed to export wallpaper: %w", err)
	}

	path := c.Out
	if path == "" {
		path = fmt.Sprintf("unfilled-day-%s-%s.jpg", dayID, preset.ID)
	}
	if err := writeFile(path, out); err != nil {
		return err
	}
	ctx.Printf("✓ Wrote %s (%dx%d, %.1f KB)\n", path, preset.Width, preset.Height, float64(len(out))/1024)
	return nil
}

// savedEdits returns the stored crop for the day and preset, or centered
// defaults.
func savedEdits(ctx context.Context, store storage.Provider, dayID, preset string) (models.ImageEdits, error) {
	edits, err := store.GetImageEdits(ctx, dayID, preset)
	switch {
	case err == nil:
		return edits, nil
	case errors.Is(err, storage.ErrNotFound):
		return models.DefaultImageEdits(dayID, preset), nil
	default:
		logger.Warn("Failed to load image edits, using defaults", "dayId", dayID, "preset", preset, "error", err)
		return models.DefaultImageEdits(dayID, preset), nil
	}
}

type ExportMonthCmd struct {
	Year  string `help:"Year, defaults to the current one."`
	Month string `help:"Month 1-12, defaults to the current one."`
	Mode  string `help:"Calendar mode." default:"grid"`
	Out   string `short:"o" help:"Output file. Defaults to unfilled-YYYY-MM.pdf."`
}

func (c *ExportMonthCmd) Run(ctx *cli.Context) error {
	monthIndex0 := ""
	if c.Month != "" {
		m, err := strconv.Atoi(c.Month)
		if err != nil || m < 1 || m > 12 {
			return fmt.Errorf("invalid month %q (expected 1-12)", c.Month)
		}
		monthIndex0 = strconv.Itoa(m - 1)
	}
	req := export.ParseMonthRequest(c.Year, monthIndex0, c.Mode, ctx.Now())

	pdf, err := export.RenderMonthPDF(req)
	if err != nil {
		return fmt.Errorf("failed to export month: %w", err)
	}
	path := c.Out
	if path == "" {
		path = export.MonthFilename(req.Year, req.MonthIndex0)
	}
	if err := writeFile(path, pdf); err != nil {
		return err
	}
	ctx.Printf("✓ Wrote %s\n", path)
	return nil
}

type ExportPresetsCmd struct{}

func (c *ExportPresetsCmd) Run(ctx *cli.Context) error {
	for _, p := range export.Presets() {
		ctx.Printf("  %-14s %-8s %5dx%-5d %s\n", p.ID, p.Category, p.Width, p.Height, p.Label)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
