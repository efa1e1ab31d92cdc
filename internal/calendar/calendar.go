// Package calendar builds month grids and names the calendar display modes.
package calendar

import (
	"fmt"
	"time"

	"github.com/julianstephens/unfilled/internal/constants"
)

type CellType string

const (
	CellEmpty CellType = "empty"
	CellDay   CellType = "day"
)

type Cell struct {
	Type CellType `json:"type"`
	Day  int      `json:"day,omitempty"`
}

// MonthGrid lays a month out in Sunday-first weeks. Cells always holds a
// multiple of seven entries.
type MonthGrid struct {
	Year         int    `json:"year"`
	MonthIndex0  int    `json:"monthIndex0"`
	DaysInMonth  int    `json:"daysInMonth"`
	FirstWeekday int    `json:"firstWeekday"`
	Cells        []Cell `json:"cells"`
}

// DaysInMonth returns the number of days in the month. monthIndex0 is
// zero-based.
func DaysInMonth(year, monthIndex0 int) int {
	return time.Date(year, time.Month(monthIndex0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of the first of the month, 0 being Sunday.
func FirstWeekday(year, monthIndex0 int) int {
	return int(time.Date(year, time.Month(monthIndex0+1), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

func BuildMonthGrid(year, monthIndex0 int) MonthGrid {
	g := MonthGrid{
		Year:         year,
		MonthIndex0:  monthIndex0,
		DaysInMonth:  DaysInMonth(year, monthIndex0),
		FirstWeekday: FirstWeekday(year, monthIndex0),
	}

	g.Cells = make([]Cell, 0, 42)
	for i := 0; i < g.FirstWeekday; i++ {
		g.Cells = append(g.Cells, Cell{Type: CellEmpty})
	}
	for d := 1; d <= g.DaysInMonth; d++ {
		g.Cells = append(g.Cells, Cell{Type: CellDay, Day: d})
	}
	for len(g.Cells)%7 != 0 {
		g.Cells = append(g.Cells, Cell{Type: CellEmpty})
	}
	return g
}

// Weeks splits the grid into rows of seven cells.
func (g MonthGrid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(g.Cells)/7)
	for i := 0; i < len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// DayID returns the YYYY-MM-DD id of a day in the grid's month.
func (g MonthGrid) DayID(day int) string {
	return DayID(g.Year, g.MonthIndex0, day)
}

// MonthID returns the YYYY-MM id of the grid's month.
func (g MonthGrid) MonthID() string {
	return MonthID(g.Year, g.MonthIndex0)
}

func (g MonthGrid) Title() string {
	return fmt.Sprintf("%s %d", time.Month(g.MonthIndex0+1), g.Year)
}

func DayID(year, monthIndex0, day int) string {
	return time.Date(year, time.Month(monthIndex0+1), day, 0, 0, 0, 0, time.UTC).Format(constants.DateFormat)
}

func MonthID(year, monthIndex0 int) string {
	return time.Date(year, time.Month(monthIndex0+1), 1, 0, 0, 0, 0, time.UTC).Format(constants.MonthFormat)
}

// ParseMonthID parses a YYYY-MM id into a year and zero-based month.
func ParseMonthID(ym string) (year, monthIndex0 int, err error) {
	t, err := time.Parse(constants.MonthFormat, ym)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: expected YYYY-MM", ym)
	}
	return t.Year(), int(t.Month()) - 1, nil
}

// AddMonths shifts a year/month pair by delta months.
func AddMonths(year, monthIndex0, delta int) (int, int) {
	t := time.Date(year, time.Month(monthIndex0+1+delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month()) - 1
}
