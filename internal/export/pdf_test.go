package export

import (
	"bytes"
	"net/url"
	"testing"
	"time"
)

func TestParseMonthRequest(t *testing.T) {
	now := time.Date(2025, time.August, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name              string
		year, month, mode string
		want              MonthRequest
	}{
		{"defaults to now", "", "", "", MonthRequest{2025, 7, "grid"}},
		{"explicit", "2024", "1", "film", MonthRequest{2024, 1, "film"}},
		{"clamped high", "3000", "15", "grid", MonthRequest{2100, 11, "grid"}},
		{"clamped low", "1200", "-3", "grid", MonthRequest{1970, 0, "grid"}},
		{"not a number clamps to minimum", "abc", "june", "poster", MonthRequest{1970, 0, "poster"}},
		{"fractions truncate", "2024.9", "3.7", "grid", MonthRequest{2024, 3, "grid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMonthRequest(tt.year, tt.month, tt.mode, now); got != tt.want {
				t.Errorf("ParseMonthRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMonthQuery(t *testing.T) {
	now := time.Date(2025, time.August, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		query string
		want  MonthRequest
	}{
		{"absent defaults to now", "", MonthRequest{2025, 7, "grid"}},
		{"explicit", "year=2024&monthIndex0=1&mode=film", MonthRequest{2024, 1, "film"}},
		{"blank year is zero", "year=&monthIndex0=2", MonthRequest{1970, 2, "grid"}},
		{"blank month is zero", "year=2030&monthIndex0=%20", MonthRequest{2030, 0, "grid"}},
		{"blank mode kept", "year=2024&monthIndex0=1&mode=", MonthRequest{2024, 1, ""}},
		{"garbage clamps low", "year=abc&monthIndex0=99", MonthRequest{1970, 11, "grid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if got := ParseMonthQuery(q, now); got != tt.want {
				t.Errorf("ParseMonthQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMonthFilename(t *testing.T) {
	if got := MonthFilename(2025, 0); got != "unfilled-2025-01.pdf" {
		t.Errorf("MonthFilename() = %q", got)
	}
	if got := MonthFilename(1999, 11); got != "unfilled-1999-12.pdf" {
		t.Errorf("MonthFilename() = %q", got)
	}
}

func TestRenderMonthPDF(t *testing.T) {
	for _, req := range []MonthRequest{
		{Year: 2025, MonthIndex0: 2, Mode: "grid"},
		{Year: 2026, MonthIndex0: 1, Mode: "minimal"},
		{Year: 9999, MonthIndex0: 40, Mode: "dark"},
	} {
		out, err := RenderMonthPDF(req)
		if err != nil {
			t.Fatalf("RenderMonthPDF(%+v) error = %v", req, err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF-")) {
			t.Errorf("RenderMonthPDF(%+v) did not produce a PDF", req)
		}
	}
}
