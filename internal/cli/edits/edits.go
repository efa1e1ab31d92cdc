package edits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/export"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

type EditsCmd struct {
	Show EditsShowCmd `cmd:"" help:"Show the saved crop for an image and preset."`
	Set  EditsSetCmd  `cmd:"" help:"Save the crop for an image and preset."`
}

type EditsShowCmd struct {
	ImageID string `arg:"" help:"Image id, usually a day (YYYY-MM-DD)."`
	Preset  string `arg:"" help:"Preset id."`
}

func (c *EditsShowCmd) Run(ctx *cli.Context) error {
	if _, ok := export.GetPreset(c.Preset); !ok {
		return fmt.Errorf("invalid preset %q", c.Preset)
	}
	edits, err := ctx.Store.GetImageEdits(context.Background(), c.ImageID, c.Preset)
	if errors.Is(err, storage.ErrNotFound) {
		edits = models.DefaultImageEdits(c.ImageID, c.Preset)
	} else if err != nil {
		return err
	}
	data, err := json.MarshalIndent(edits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal edits: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

// EditsSetCmd starts from the saved edits; only flags that are given change.
type EditsSetCmd struct {
	ImageID  string   `arg:"" help:"Image id, usually a day (YYYY-MM-DD)."`
	Preset   string   `arg:"" help:"Preset id."`
	CropX    *float64 `name:"crop-x" help:"Crop center x in [0,1]."`
	CropY    *float64 `name:"crop-y" help:"Crop center y in [0,1]."`
	Zoom     *float64 `help:"Zoom factor, 1 fills the frame."`
	Rotation *float64 `help:"Rotation in degrees."`
	Fit      string   `help:"Fit mode, cover or contain."`
}

func (c *EditsSetCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if _, ok := export.GetPreset(c.Preset); !ok {
		return fmt.Errorf("invalid preset %q", c.Preset)
	}
	edits, err := ctx.Store.GetImageEdits(bg, c.ImageID, c.Preset)
	if errors.Is(err, storage.ErrNotFound) {
		edits = models.DefaultImageEdits(c.ImageID, c.Preset)
	} else if err != nil {
		return err
	}

	if c.CropX != nil {
		edits.CropX = *c.CropX
	}
	if c.CropY != nil {
		edits.CropY = *c.CropY
	}
	if c.Zoom != nil {
		edits.Zoom = *c.Zoom
	}
	if c.Rotation != nil {
		edits.Rotation = export.NormalizeRotation(*c.Rotation)
	}
	switch c.Fit {
	case "":
	case string(models.FitCover), string(models.FitContain):
		edits.FitMode = models.FitMode(c.Fit)
	default:
		return fmt.Errorf("invalid fit mode %q (expected cover or contain)", c.Fit)
	}
	if err := edits.Validate(); err != nil {
		return err
	}
	edits.ImageID, edits.Preset = c.ImageID, c.Preset
	edits.UpdatedAt = ctx.Now().UTC()

	if err := ctx.Store.SaveImageEdits(bg, edits); err != nil {
		return fmt.Errorf("failed to save edits: %w", err)
	}
	ctx.Printf("✓ Saved crop for %s/%s: center (%.2f, %.2f), zoom %.2f, rotation %.0f°\n",
		c.ImageID, c.Preset, edits.CropX, edits.CropY, edits.Zoom, edits.Rotation)
	return nil
}
