package models

import (
	"fmt"
	"math"
	"time"
)

type FitMode string

const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
)

// ParseFitMode maps anything other than "cover" to contain.
func ParseFitMode(s string) FitMode {
	if s == string(FitCover) {
		return FitCover
	}
	return FitContain
}

// ImageEdits is the crop/zoom/rotation a user chose for one image and preset.
// CropX and CropY are the normalized crop center.
type ImageEdits struct {
	ImageID   string    `json:"imageId"`
	Preset    string    `json:"preset"`
	CropX     float64   `json:"cropX"`
	CropY     float64   `json:"cropY"`
	Zoom      float64   `json:"zoom"`
	Rotation  float64   `json:"rotation"`
	FitMode   FitMode   `json:"fitMode"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultImageEdits is a centered, unzoomed, unrotated cover.
func DefaultImageEdits(imageID, preset string) ImageEdits {
	return ImageEdits{
		ImageID: imageID,
		Preset:  preset,
		CropX:   0.5,
		CropY:   0.5,
		Zoom:    1,
		FitMode: FitCover,
	}
}

func (e ImageEdits) Validate() error {
	for name, v := range map[string]float64{"cropX": e.CropX, "cropY": e.CropY, "zoom": e.Zoom, "rotation": e.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
	}
	if e.CropX < 0 || e.CropX > 1 || e.CropY < 0 || e.CropY > 1 {
		return fmt.Errorf("crop center must be within [0,1], got (%v, %v)", e.CropX, e.CropY)
	}
	if e.Zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %v", e.Zoom)
	}
	return nil
}
