package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/unfilled/internal/constants"
)

type Lifecycle string

const (
	LifecycleEmpty    Lifecycle = "empty"
	LifecycleDraft    Lifecycle = "draft"
	LifecycleActive   Lifecycle = "active"
	LifecycleArchived Lifecycle = "archived"
)

// Valid reports whether l is one of the known lifecycle states.
func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleEmpty, LifecycleDraft, LifecycleActive, LifecycleArchived:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPlanned TaskStatus = "planned"
	TaskDone    TaskStatus = "done"
	TaskSkipped TaskStatus = "skipped"
)

type NoteType string

const (
	NoteCaption    NoteType = "caption"
	NoteReflection NoteType = "reflection"
	NoteFree       NoteType = "free"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Media struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

type Task struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Status    TaskStatus `json:"status"`
	CreatedAt string     `json:"createdAt"` // RFC3339 timestamp
}

type Note struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Type      NoteType `json:"type"`
	CreatedAt string   `json:"createdAt"` // RFC3339 timestamp
}

// DayEntry is everything recorded for one calendar day. It is stored as a
// single JSON document keyed by its ID.
type DayEntry struct {
	ID              string     `json:"id"`      // YYYY-MM-DD
	DateISO         string     `json:"dateISO"` // YYYY-MM-DD
	Lifecycle       Lifecycle  `json:"lifecycle"`
	Mode            string     `json:"mode"`
	Media           *Media     `json:"media,omitempty"`
	Notes           []Note     `json:"notes"`
	Tasks           []Task     `json:"tasks"`
	LastEditedAt    string     `json:"lastEditedAt"` // RFC3339 timestamp
	ManualLifecycle *Lifecycle `json:"manualLifecycle,omitempty"`
}

// ValidateDayID checks that id is a real calendar date in YYYY-MM-DD form.
func ValidateDayID(id string) error {
	if id == "" || id == "undefined-undefined" {
		return fmt.Errorf("invalid day id %q", id)
	}
	if _, err := time.Parse(constants.DateFormat, id); err != nil {
		return fmt.Errorf("invalid day id %q: expected YYYY-MM-DD", id)
	}
	return nil
}

// NewEmptyDayEntry returns a fresh entry for dayID. An empty mode falls back
// to the default calendar mode.
func NewEmptyDayEntry(dayID, mode string) DayEntry {
	if mode == "" {
		mode = constants.DefaultCalendarMode
	}
	return DayEntry{
		ID:           dayID,
		DateISO:      dayID,
		Lifecycle:    LifecycleEmpty,
		Mode:         mode,
		Notes:        []Note{},
		Tasks:        []Task{},
		LastEditedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// ComputeLifecycle derives the lifecycle of an entry from its content. A
// manual override always wins.
func ComputeLifecycle(entry DayEntry) Lifecycle {
	if entry.ManualLifecycle != nil {
		return *entry.ManualLifecycle
	}

	if entry.Media == nil && len(entry.Notes) == 0 && len(entry.Tasks) == 0 {
		return LifecycleEmpty
	}

	for _, t := range entry.Tasks {
		if t.Status == TaskPlanned || t.Status == TaskDone {
			return LifecycleActive
		}
	}

	return LifecycleDraft
}

// IsEmpty reports whether the entry holds no media, notes or tasks.
func (e DayEntry) IsEmpty() bool {
	return e.Media == nil && len(e.Notes) == 0 && len(e.Tasks) == 0
}

// LastEdited parses LastEditedAt. Unparsable values sort as the oldest
// possible edit.
func (e DayEntry) LastEdited() time.Time {
	if t, err := time.Parse(time.RFC3339Nano, e.LastEditedAt); err == nil {
		return t
	}
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
}

func NewTask(text string) Task {
	return Task{
		ID:        "task-" + uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Status:    TaskPlanned,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func NewNote(text string, noteType NoteType) Note {
	if noteType == "" {
		noteType = NoteFree
	}
	return Note{
		ID:        "note-" + uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Type:      noteType,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// CycleTaskStatus advances planned -> done -> skipped -> planned.
func CycleTaskStatus(s TaskStatus) TaskStatus {
	switch s {
	case TaskPlanned:
		return TaskDone
	case TaskDone:
		return TaskSkipped
	default:
		return TaskPlanned
	}
}

func TaskStatusGlyph(s TaskStatus) string {
	switch s {
	case TaskDone:
		return "✓"
	case TaskSkipped:
		return "—"
	default:
		return "○"
	}
}

func LifecycleGlyph(l Lifecycle) string {
	switch l {
	case LifecycleDraft:
		return "◌"
	case LifecycleActive:
		return "●"
	case LifecycleArchived:
		return "▪"
	default:
		return "·"
	}
}
