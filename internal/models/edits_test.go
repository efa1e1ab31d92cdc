package models

import (
	"math"
	"testing"
)

func TestImageEditsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ImageEdits)
		wantErr bool
	}{
		{"defaults", func(*ImageEdits) {}, false},
		{"corner crop", func(e *ImageEdits) { e.CropX, e.CropY = 0, 1 }, false},
		{"crop out of range", func(e *ImageEdits) { e.CropX = 1.2 }, true},
		{"zero zoom", func(e *ImageEdits) { e.Zoom = 0 }, true},
		{"nan rotation", func(e *ImageEdits) { e.Rotation = math.NaN() }, true},
		{"inf zoom", func(e *ImageEdits) { e.Zoom = math.Inf(1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultImageEdits("2025-01-01", "phone_high")
			tt.mutate(&e)
			if err := e.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFitMode(t *testing.T) {
	for in, want := range map[string]FitMode{"cover": FitCover, "contain": FitContain, "": FitContain, "stretch": FitContain} {
		if got := ParseFitMode(in); got != want {
			t.Errorf("ParseFitMode(%q) = %v, want %v", in, got, want)
		}
	}
}
