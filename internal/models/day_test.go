package models

import (
	"strings"
	"testing"
)

func lifecyclePtr(l Lifecycle) *Lifecycle { return &l }

func TestComputeLifecycle(t *testing.T) {
	tests := []struct {
		name  string
		entry DayEntry
		want  Lifecycle
	}{
		{
			name:  "no content",
			entry: DayEntry{},
			want:  LifecycleEmpty,
		},
		{
			name:  "media only",
			entry: DayEntry{Media: &Media{Type: MediaImage}},
			want:  LifecycleDraft,
		},
		{
			name:  "notes only",
			entry: DayEntry{Notes: []Note{{Text: "quiet light"}}},
			want:  LifecycleDraft,
		},
		{
			name:  "planned task",
			entry: DayEntry{Tasks: []Task{{Status: TaskPlanned}}},
			want:  LifecycleActive,
		},
		{
			name:  "done task",
			entry: DayEntry{Tasks: []Task{{Status: TaskSkipped}, {Status: TaskDone}}},
			want:  LifecycleActive,
		},
		{
			name:  "only skipped tasks",
			entry: DayEntry{Tasks: []Task{{Status: TaskSkipped}}},
			want:  LifecycleDraft,
		},
		{
			name:  "manual override wins",
			entry: DayEntry{Tasks: []Task{{Status: TaskPlanned}}, ManualLifecycle: lifecyclePtr(LifecycleArchived)},
			want:  LifecycleArchived,
		},
		{
			name:  "manual empty on non-empty",
			entry: DayEntry{Notes: []Note{{Text: "x"}}, ManualLifecycle: lifecyclePtr(LifecycleEmpty)},
			want:  LifecycleEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeLifecycle(tt.entry); got != tt.want {
				t.Errorf("ComputeLifecycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateDayID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"2025-03-14", false},
		{"", true},
		{"undefined-undefined", true},
		{"2025-13-01", true},
		{"2025-3-4", true},
		{"../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateDayID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDayID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestNewEmptyDayEntry(t *testing.T) {
	e := NewEmptyDayEntry("2025-01-05", "")
	if e.Mode != "poster" {
		t.Errorf("Mode = %q, want poster", e.Mode)
	}
	if e.Lifecycle != LifecycleEmpty {
		t.Errorf("Lifecycle = %v, want empty", e.Lifecycle)
	}
	if e.Notes == nil || e.Tasks == nil {
		t.Error("Notes and Tasks must be non-nil slices")
	}
	if e.ID != e.DateISO {
		t.Errorf("DateISO = %q, want %q", e.DateISO, e.ID)
	}
}

func TestCycleTaskStatus(t *testing.T) {
	s := TaskPlanned
	want := []TaskStatus{TaskDone, TaskSkipped, TaskPlanned}
	for i, w := range want {
		s = CycleTaskStatus(s)
		if s != w {
			t.Fatalf("step %d: CycleTaskStatus() = %v, want %v", i, s, w)
		}
	}
}

func TestNewTaskAndNote(t *testing.T) {
	task := NewTask("  print contact sheet  ")
	if task.Text != "print contact sheet" {
		t.Errorf("Text = %q, want trimmed", task.Text)
	}
	if !strings.HasPrefix(task.ID, "task-") || task.Status != TaskPlanned {
		t.Errorf("unexpected task %+v", task)
	}

	note := NewNote("golden hour", "")
	if note.Type != NoteFree || !strings.HasPrefix(note.ID, "note-") {
		t.Errorf("unexpected note %+v", note)
	}
}

func TestLastEditedFallback(t *testing.T) {
	e := DayEntry{LastEditedAt: "not a time"}
	if got := e.LastEdited().Year(); got != 2000 {
		t.Errorf("LastEdited().Year() = %d, want 2000", got)
	}
}
