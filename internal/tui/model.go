// Package tui is the interactive month browser.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/models"
)

type SessionState int

const (
	StateMonth SessionState = iota
	StateDay
	StateAddNote
	StateAddTask
)

// DayStore is the slice of the day store the browser needs.
type DayStore interface {
	Load(ctx context.Context, dayID, mode string) models.DayEntry
	SaveDebounced(entry models.DayEntry)
}

type NoteFormModel struct {
	Text string
	Type models.NoteType
}

type TaskFormModel struct {
	Text string
}

type Model struct {
	days DayStore
	mode string

	today       time.Time
	year        int
	monthIndex0 int
	day         int

	state      SessionState
	taskCursor int
	entries    map[string]models.DayEntry

	form     *huh.Form
	noteForm *NoteFormModel
	taskForm *TaskFormModel

	keys     KeyMap
	help     help.Model
	width    int
	height   int
	status   string
	quitting bool
}

func NewModel(days DayStore, now time.Time, mode string) Model {
	m := Model{
		days:        days,
		mode:        mode,
		today:       now,
		year:        now.Year(),
		monthIndex0: int(now.Month()) - 1,
		day:         now.Day(),
		state:       StateMonth,
		entries:     make(map[string]models.DayEntry),
		keys:        DefaultKeyMap(),
		help:        help.New(),
	}
	m.loadMonth()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// SelectedDayID returns the day under the cursor.
func (m Model) SelectedDayID() string {
	return calendar.DayID(m.year, m.monthIndex0, m.day)
}

func (m Model) State() SessionState {
	return m.state
}

// entry returns the cached entry for dayID, loading it on first use.
func (m *Model) entry(dayID string) models.DayEntry {
	if e, ok := m.entries[dayID]; ok {
		return e
	}
	e := m.days.Load(context.Background(), dayID, m.mode)
	m.entries[dayID] = e
	return e
}

// peek returns the cached entry without loading it. Rendering uses it so
// View stays free of storage reads.
func (m Model) peek(dayID string) (models.DayEntry, bool) {
	e, ok := m.entries[dayID]
	return e, ok
}

// loadMonth fills the cache for every day of the visible month.
func (m *Model) loadMonth() {
	n := calendar.DaysInMonth(m.year, m.monthIndex0)
	for d := 1; d <= n; d++ {
		m.entry(calendar.DayID(m.year, m.monthIndex0, d))
	}
}

func (m *Model) save(entry models.DayEntry) {
	entry.LastEditedAt = time.Now().UTC().Format(time.RFC3339Nano)
	entry = daystore.Normalize(entry)
	m.entries[entry.ID] = entry
	m.days.SaveDebounced(entry)
}
