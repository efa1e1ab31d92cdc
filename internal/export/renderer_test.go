package export

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/models"
)

var (
	red    = color.NRGBA{R: 0xff, A: 0xff}
	blue   = color.NRGBA{B: 0xff, A: 0xff}
	green  = color.NRGBA{G: 0xff, A: 0xff}
	yellow = color.NRGBA{R: 0xff, G: 0xff, A: 0xff}
	white  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func encodeJPEG(t *testing.T, w, h int, paint func(x, y int) color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, paint(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))
	return buf.Bytes()
}

func solid(c color.NRGBA) func(x, y int) color.NRGBA {
	return func(int, int) color.NRGBA { return c }
}

func decodeJPEG(t *testing.T, buf []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	return img
}

// near compares colors with room for JPEG artifacts.
func near(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	got := [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
	exp := [3]int{int(want.R), int(want.G), int(want.B)}
	for i := range got {
		d := got[i] - exp[i]
		if d < -24 || d > 24 {
			t.Errorf("pixel (%d,%d) = %v, want about %v", x, y, got, exp)
			return
		}
	}
}

func TestRenderContainLandscapeOnPhone(t *testing.T) {
	src := encodeJPEG(t, 4000, 3000, solid(white))
	r := &Renderer{}

	out, err := r.RenderContain(src, 1290, 2796, red)
	require.NoError(t, err)
	img := decodeJPEG(t, out)

	assert.Equal(t, image.Rect(0, 0, 1290, 2796), img.Bounds())
	// The image spans the full width and the bars sit above and below it.
	near(t, img, 3, 1398, white)
	near(t, img, 1286, 1398, white)
	near(t, img, 645, 400, red)
	near(t, img, 645, 2400, red)
	near(t, img, 3, 3, red)
	near(t, img, 1286, 2792, red)
}

func TestRenderContainBorderMatchesBackground(t *testing.T) {
	src := encodeJPEG(t, 300, 300, solid(white))
	bg, err := ParseColor("#0000ff")
	require.NoError(t, err)

	out, err := (&Renderer{Quality: 95}).RenderContain(src, 900, 300, bg)
	require.NoError(t, err)
	img := decodeJPEG(t, out)

	require.Equal(t, 900, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())
	for _, x := range []int{0, 100, 280, 620, 800, 899} {
		for _, y := range []int{0, 150, 299} {
			near(t, img, x, y, blue)
		}
	}
	near(t, img, 450, 150, white)
}

func TestRenderCoverFillsFrameCroppingLongAxis(t *testing.T) {
	// Yellow band on top, blue band on the bottom, green elsewhere.
	src := encodeJPEG(t, 4000, 3000, func(_, y int) color.NRGBA {
		switch {
		case y < 300:
			return yellow
		case y >= 2700:
			return blue
		}
		return green
	})
	r := &Renderer{}

	out, err := r.RenderCover(src, 1290, 2796, models.DefaultImageEdits("day", PresetPhoneHigh))
	require.NoError(t, err)
	img := decodeJPEG(t, out)

	assert.Equal(t, image.Rect(0, 0, 1290, 2796), img.Bounds())
	// Nothing was cut vertically: both bands survive.
	near(t, img, 645, 40, yellow)
	near(t, img, 645, 2760, blue)
	// No letterboxing anywhere along the sides.
	near(t, img, 2, 1398, green)
	near(t, img, 1287, 1398, green)
}

func TestRenderCoverAppliesZoomCrop(t *testing.T) {
	// Left half red, right half blue.
	src := encodeJPEG(t, 400, 200, func(x, _ int) color.NRGBA {
		if x < 200 {
			return red
		}
		return blue
	})
	edits := models.ImageEdits{CropX: 0.9, CropY: 0.5, Zoom: 4}

	out, err := (&Renderer{}).RenderCover(src, 100, 100, edits)
	require.NoError(t, err)
	img := decodeJPEG(t, out)
	near(t, img, 50, 50, blue)
	near(t, img, 2, 2, blue)
}

func TestRenderCoverRotatesClockwise(t *testing.T) {
	// Red top half. After a quarter turn clockwise the red half is on the right.
	src := encodeJPEG(t, 100, 100, func(_, y int) color.NRGBA {
		if y < 50 {
			return red
		}
		return blue
	})
	edits := models.DefaultImageEdits("day", "")
	edits.Rotation = 90

	out, err := (&Renderer{}).RenderCover(src, 100, 100, edits)
	require.NoError(t, err)
	img := decodeJPEG(t, out)
	near(t, img, 85, 50, red)
	near(t, img, 15, 50, blue)
}

func TestRenderCoverFallsBackToContain(t *testing.T) {
	src := encodeJPEG(t, 200, 100, solid(white))
	var fallbacks int
	r := &Renderer{OnFallback: func(error) { fallbacks++ }}

	out, err := r.RenderCover(src, 100, 100, models.ImageEdits{CropX: 0.5, CropY: 0.5, Zoom: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, fallbacks)

	img := decodeJPEG(t, out)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
	near(t, img, 50, 5, color.NRGBA{A: 0xff})
	near(t, img, 50, 50, white)
}

func TestRenderRejectsUndecodableInput(t *testing.T) {
	r := &Renderer{}
	for _, fit := range []models.FitMode{models.FitContain, models.FitCover} {
		_, err := r.Render(context.Background(), RenderRequest{
			Image: []byte("definitely not an image"), Width: 10, Height: 10, Fit: fit,
		})
		var renderErr *RenderError
		require.True(t, errors.As(err, &renderErr), "fit %s: %v", fit, err)
		assert.Equal(t, "contain", renderErr.Op)
	}

	_, err := r.Validate(nil)
	var renderErr *RenderError
	assert.True(t, errors.As(err, &renderErr))
}

func TestRenderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Renderer{}).Render(ctx, RenderRequest{Image: []byte{1}, Width: 1, Height: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

// withOrientation inserts an EXIF APP1 segment carrying orientation o right
// after the SOI marker.
func withOrientation(t *testing.T, jpg []byte, o uint16) []byte {
	t.Helper()
	require.True(t, len(jpg) > 2 && jpg[0] == 0xff && jpg[1] == 0xd8)

	var tiff bytes.Buffer
	tiff.WriteString("MM")
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0x002a))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(8))
	_ = binary.Write(&tiff, binary.BigEndian, uint16(1))      // one IFD entry
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0x0112)) // orientation
	_ = binary.Write(&tiff, binary.BigEndian, uint16(3))      // SHORT
	_ = binary.Write(&tiff, binary.BigEndian, uint32(1))
	_ = binary.Write(&tiff, binary.BigEndian, o)
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var seg bytes.Buffer
	seg.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&seg, binary.BigEndian, uint16(len(payload)+2))
	seg.Write(payload)

	out := append([]byte{}, jpg[:2]...)
	out = append(out, seg.Bytes()...)
	return append(out, jpg[2:]...)
}

func TestDecodeAppliesEXIFOrientation(t *testing.T) {
	plain := encodeJPEG(t, 40, 20, solid(white))

	img, err := decode(plain)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 20), img.Bounds().Size())

	img, err = decode(withOrientation(t, plain, 6))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 40), img.Bounds().Size(), "orientation 6 is a quarter turn")

	p, err := (&Renderer{}).Validate(plain)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 20), p)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#000000", color.NRGBA{A: 0xff}, false},
		{"#fff", white, false},
		{"FF0000", red, false},
		{"#0000ff80", color.NRGBA{B: 0xff, A: 0x80}, false},
		{"white", white, false},
		{" Black ", color.NRGBA{A: 0xff}, false},
		{"transparent", color.NRGBA{}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
		{"chartreuse", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQualityClamp(t *testing.T) {
	tests := []struct{ in, want int }{{0, 90}, {75, 75}, {-4, 1}, {400, 100}}
	for _, tt := range tests {
		if got := (&Renderer{Quality: tt.in}).quality(); got != tt.want {
			t.Errorf("quality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
