package export

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
)

// RenderError reports input the renderer could not decode or encode. It is
// the only error an export returns; cover-mode problems fall back to contain.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer produces wallpaper JPEGs. The zero value is usable.
type Renderer struct {
	// Quality is the JPEG quality, 1..100. Zero means the default.
	Quality int
	Logger  *log.Logger
	// OnFallback, when set, is called each time a cover render falls back
	// to contain.
	OnFallback func(err error)
}

func NewRenderer(quality int) *Renderer {
	return &Renderer{Quality: quality, Logger: logger.With("component", "export")}
}

// RenderRequest describes one wallpaper export.
type RenderRequest struct {
	Image  []byte
	Width  int
	Height int
	Fit    models.FitMode
	// Edits applies to cover renders. Nil means a centered, unzoomed crop.
	Edits      *models.ImageEdits
	Background color.Color
}

func (r *Renderer) quality() int {
	q := r.Quality
	if q == 0 {
		q = constants.DefaultJPEGQuality
	}
	return clamp(q, 1, 100)
}

func (r *Renderer) getLogger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logger.With("component", "export")
}

// Render dispatches on the fit mode.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, &RenderError{Op: string(req.Fit), Err: fmt.Errorf("invalid target size %dx%d", req.Width, req.Height)}
	}
	if req.Fit == models.FitCover {
		edits := models.DefaultImageEdits("", "")
		if req.Edits != nil {
			edits = *req.Edits
		}
		return r.RenderCover(req.Image, req.Width, req.Height, edits)
	}
	bg := req.Background
	if bg == nil {
		bg = color.Black
	}
	return r.RenderContain(req.Image, req.Width, req.Height, bg)
}

// RenderContain scales the whole image into a width x height frame filled
// with bg. Nothing is cropped.
func (r *Renderer) RenderContain(buf []byte, width, height int, bg color.Color) ([]byte, error) {
	img, err := decode(buf)
	if err != nil {
		return nil, &RenderError{Op: "contain", Err: err}
	}
	out, err := r.encode(containImage(img, width, height, bg))
	if err != nil {
		return nil, &RenderError{Op: "contain", Err: err}
	}
	return out, nil
}

// RenderCover applies the user rotation and zoom crop, then fills the frame
// exactly. Any failure falls back to a black-background contain render.
func (r *Renderer) RenderCover(buf []byte, width, height int, edits models.ImageEdits) ([]byte, error) {
	img, err := coverImage(buf, width, height, edits)
	if err == nil {
		var out []byte
		if out, err = r.encode(img); err == nil {
			return out, nil
		}
	}

	r.getLogger().Warn("Cover render failed, falling back to contain", "error", err)
	if r.OnFallback != nil {
		r.OnFallback(err)
	}
	return r.RenderContain(buf, width, height, color.Black)
}

// Validate reports the dimensions of buf or a RenderError when it is not a
// decodable image.
func (r *Renderer) Validate(buf []byte) (image.Point, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return image.Point{}, &RenderError{Op: "validate", Err: err}
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return image.Point{}, &RenderError{Op: "validate", Err: fmt.Errorf("image has no dimensions")}
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

func (r *Renderer) encode(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(r.quality())); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// decode reads buf with its EXIF orientation applied.
func decode(buf []byte) (image.Image, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func containImage(img image.Image, width, height int, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	rect := ContainRect(b.Dx(), b.Dy(), width, height)
	canvas := imaging.New(width, height, bg)
	if rect.Empty() {
		return canvas
	}
	scaled := imaging.Resize(img, rect.Dx(), rect.Dy(), imaging.Lanczos)
	return imaging.Paste(canvas, scaled, rect.Min)
}

func coverImage(buf []byte, width, height int, edits models.ImageEdits) (out image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cover render panicked: %v", p)
		}
	}()

	if err := edits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid edits: %w", err)
	}
	img, err := decode(buf)
	if err != nil {
		return nil, err
	}

	// imaging rotates counter-clockwise; edits are clockwise.
	if rot := NormalizeRotation(edits.Rotation); rot != 0 {
		img = imaging.Rotate(img, -rot, color.Black)
	}

	b := img.Bounds()
	crop := CoverCropRect(b.Dx(), b.Dy(), edits)
	if crop.Empty() {
		return nil, fmt.Errorf("image has no dimensions")
	}
	if crop != image.Rect(0, 0, b.Dx(), b.Dy()) {
		img = imaging.Crop(img, crop.Add(b.Min))
	}

	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa (the # is optional) and the
// names black, white and transparent.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "black":
		return color.NRGBA{A: 0xff}, nil
	case "white":
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	case "transparent":
		return color.NRGBA{}, nil
	}

	hexStr := strings.TrimPrefix(s, "#")
	if len(hexStr) == 3 {
		hexStr = string([]byte{hexStr[0], hexStr[0], hexStr[1], hexStr[1], hexStr[2], hexStr[2]})
	}
	if len(hexStr) == 6 {
		hexStr += "ff"
	}
	if len(hexStr) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
}
