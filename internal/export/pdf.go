package export

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/constants"
)

// Month sheet layout in points on a US Letter page, origin top-left.
const (
	pageWidth   = 612.0
	pageHeight  = 792.0
	pageMargin  = 48.0
	gridTopY    = 130.0
	gridHeight  = 520.0
	gridCols    = 7
	gridRows    = 6
	titleSize   = 20
	labelSize   = 10
	daySize     = 12
	footerY     = pageHeight - 28
	monthFooter = "unfilled · calendar export"
)

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MonthRequest selects the month sheet to draw. MonthIndex0 is zero-based.
type MonthRequest struct {
	Year        int
	MonthIndex0 int
	Mode        string
}

// ParseMonthRequest reads year, monthIndex0 and mode values. Empty values
// default to now; values that are not numbers clamp to the minimum.
func ParseMonthRequest(year, monthIndex0, mode string, now time.Time) MonthRequest {
	req := MonthRequest{
		Year:        clampParam(year, year != "", now.Year(), constants.MinExportYear, constants.MaxExportYear),
		MonthIndex0: clampParam(monthIndex0, monthIndex0 != "", int(now.Month())-1, 0, 11),
		Mode:        mode,
	}
	if req.Mode == "" {
		req.Mode = string(calendar.ModeGrid)
	}
	return req
}

// ParseMonthQuery is ParseMonthRequest for query parameters. Only absent
// parameters default to now; a present but blank number counts as zero.
func ParseMonthQuery(q url.Values, now time.Time) MonthRequest {
	req := MonthRequest{
		Year:        clampParam(q.Get("year"), q.Has("year"), now.Year(), constants.MinExportYear, constants.MaxExportYear),
		MonthIndex0: clampParam(q.Get("monthIndex0"), q.Has("monthIndex0"), int(now.Month())-1, 0, 11),
		Mode:        string(calendar.ModeGrid),
	}
	if q.Has("mode") {
		req.Mode = q.Get("mode")
	}
	return req
}

func clampParam(raw string, present bool, fallback, lo, hi int) int {
	if !present {
		return clamp(fallback, lo, hi)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "0"
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return lo
	}
	f = math.Trunc(f)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}
	return int(f)
}

// MonthFilename is the download name of a month sheet.
func MonthFilename(year, monthIndex0 int) string {
	return fmt.Sprintf("unfilled-%d-%02d.pdf", year, monthIndex0+1)
}

// RenderMonthPDF draws a single-page month grid.
func RenderMonthPDF(req MonthRequest) ([]byte, error) {
	year := clamp(req.Year, constants.MinExportYear, constants.MaxExportYear)
	month := clamp(req.MonthIndex0, 0, 11)
	grid := calendar.BuildMonthGrid(year, month)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(constants.AppName, true)
	pdf.SetTitle(grid.Title(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.Text(pageMargin, pageMargin, grid.Title())
	pdf.SetFont("Helvetica", "", labelSize)
	pdf.Text(pageMargin, 70, tr("mode: "+req.Mode))

	gridW := pageWidth - pageMargin*2
	cellW := gridW / gridCols
	cellH := gridHeight / gridRows

	pdf.SetFont("Helvetica", "B", labelSize)
	for c, name := range weekdays {
		pdf.Text(pageMargin+float64(c)*cellW+6, gridTopY-12, name)
	}

	pdf.SetLineWidth(1)
	pdf.Rect(pageMargin, gridTopY, gridW, gridHeight, "D")
	pdf.SetLineWidth(0.8)
	for c := 1; c < gridCols; c++ {
		x := pageMargin + float64(c)*cellW
		pdf.Line(x, gridTopY, x, gridTopY+gridHeight)
	}
	for r := 1; r < gridRows; r++ {
		y := gridTopY + float64(r)*cellH
		pdf.Line(pageMargin, y, pageMargin+gridW, y)
	}

	pdf.SetFont("Helvetica", "B", daySize)
	for slot, cell := range grid.Cells {
		if cell.Type != calendar.CellDay || slot >= gridCols*gridRows {
			continue
		}
		r, c := slot/gridCols, slot%gridCols
		pdf.Text(pageMargin+float64(c)*cellW+6, gridTopY+float64(r)*cellH+16, strconv.Itoa(cell.Day))
	}

	pdf.SetFont("Helvetica", "", labelSize)
	pdf.Text(pageMargin, footerY, tr(monthFooter))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render month pdf: %w", err)
	}
	return buf.Bytes(), nil
}
