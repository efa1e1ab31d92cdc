package export

import (
	"image"
	"math"

	"github.com/julianstephens/unfilled/internal/models"
)

// NormalizeRotation maps any angle in degrees to (-180, 180]. Non-finite
// input is treated as no rotation.
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	switch {
	case r <= -180:
		r += 360
	case r > 180:
		r -= 360
	}
	return r
}

// ContainRect returns where a srcW x srcH image lands when scaled uniformly
// to fit entirely inside a dstW x dstH frame, centered.
func ContainRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}
	scale := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w := clamp(int(math.Round(float64(srcW)*scale)), 1, dstW)
	h := clamp(int(math.Round(float64(srcH)*scale)), 1, dstH)
	x := (dstW - w) / 2
	y := (dstH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// CoverCropRect returns the region of a srcW x srcH image selected by the
// zoom and crop center in edits. Without zoom the whole image is used. The
// rectangle keeps its zoomed size and slides inward when the requested
// center is too close to an edge, so it never leaves the source.
func CoverCropRect(srcW, srcH int, edits models.ImageEdits) image.Rectangle {
	full := image.Rect(0, 0, srcW, srcH)
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}
	}
	zoom := edits.Zoom
	if math.IsNaN(zoom) || zoom <= 1 {
		return full
	}

	cw := clamp(int(math.Floor(float64(srcW)/zoom)), 1, srcW)
	ch := clamp(int(math.Floor(float64(srcH)/zoom)), 1, srcH)

	left := int(math.Floor(unit(edits.CropX)*float64(srcW) - float64(cw)/2))
	top := int(math.Floor(unit(edits.CropY)*float64(srcH) - float64(ch)/2))
	left = clamp(left, 0, srcW-cw)
	top = clamp(top, 0, srcH-ch)

	return image.Rect(left, top, left+cw, top+ch)
}

// unit clamps v to [0,1], mapping NaN to the center.
func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
