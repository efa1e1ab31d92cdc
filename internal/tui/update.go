package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	}

	if m.state == StateAddNote || m.state == StateAddTask {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	m.status = ""
	if m.state == StateDay {
		return m.updateDay(keyMsg)
	}
	return m.updateMonth(keyMsg)
}

func (m Model) updateMonth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveDays(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveDays(1)
	case key.Matches(msg, m.keys.Up):
		m.moveDays(-7)
	case key.Matches(msg, m.keys.Down):
		m.moveDays(7)
	case key.Matches(msg, m.keys.PrevMonth):
		m.moveMonths(-1)
	case key.Matches(msg, m.keys.NextMonth):
		m.moveMonths(1)
	case key.Matches(msg, m.keys.Today):
		m.year, m.monthIndex0, m.day = m.today.Year(), int(m.today.Month())-1, m.today.Day()
		m.loadMonth()
	case key.Matches(msg, m.keys.Open):
		m.state = StateDay
		m.taskCursor = 0
	case key.Matches(msg, m.keys.AddNote):
		return m.startNoteForm()
	case key.Matches(msg, m.keys.AddTask):
		return m.startTaskForm()
	case key.Matches(msg, m.keys.Archive):
		m.toggleArchive()
	}
	return m, nil
}

func (m Model) updateDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entry := m.entry(m.SelectedDayID())

	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = StateMonth
	case key.Matches(msg, m.keys.Up):
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.taskCursor < len(entry.Tasks)-1 {
			m.taskCursor++
		}
	case key.Matches(msg, m.keys.Left):
		m.moveDays(-1)
		m.taskCursor = 0
	case key.Matches(msg, m.keys.Right):
		m.moveDays(1)
		m.taskCursor = 0
	case key.Matches(msg, m.keys.Cycle):
		if len(entry.Tasks) == 0 {
			return m, nil
		}
		tasks := append([]models.Task(nil), entry.Tasks...)
		tasks[m.taskCursor].Status = models.CycleTaskStatus(tasks[m.taskCursor].Status)
		entry.Tasks = tasks
		m.save(entry)
	case key.Matches(msg, m.keys.Delete):
		if len(entry.Tasks) == 0 {
			return m, nil
		}
		tasks := make([]models.Task, 0, len(entry.Tasks)-1)
		tasks = append(tasks, entry.Tasks[:m.taskCursor]...)
		tasks = append(tasks, entry.Tasks[m.taskCursor+1:]...)
		entry.Tasks = tasks
		m.save(entry)
		if m.taskCursor >= len(tasks) && m.taskCursor > 0 {
			m.taskCursor--
		}
	case key.Matches(msg, m.keys.AddNote):
		return m.startNoteForm()
	case key.Matches(msg, m.keys.AddTask):
		return m.startTaskForm()
	case key.Matches(msg, m.keys.Archive):
		m.toggleArchive()
	}
	return m, nil
}

// moveDays shifts the cursor, rolling into the neighbouring month when it
// runs off either end.
func (m *Model) moveDays(delta int) {
	d := m.day + delta
	switch n := calendar.DaysInMonth(m.year, m.monthIndex0); {
	case d < 1:
		m.year, m.monthIndex0 = calendar.AddMonths(m.year, m.monthIndex0, -1)
		d += calendar.DaysInMonth(m.year, m.monthIndex0)
		m.loadMonth()
	case d > n:
		m.year, m.monthIndex0 = calendar.AddMonths(m.year, m.monthIndex0, 1)
		d -= n
		m.loadMonth()
	}
	m.day = d
}

func (m *Model) moveMonths(delta int) {
	m.year, m.monthIndex0 = calendar.AddMonths(m.year, m.monthIndex0, delta)
	m.day = min(m.day, calendar.DaysInMonth(m.year, m.monthIndex0))
	m.loadMonth()
}

// toggleArchive pins the day as archived, or releases a pinned day back to
// its computed lifecycle.
func (m *Model) toggleArchive() {
	entry := m.entry(m.SelectedDayID())
	if entry.ManualLifecycle != nil && *entry.ManualLifecycle == models.LifecycleArchived {
		entry.ManualLifecycle = nil
		m.status = fmt.Sprintf("%s unarchived", entry.ID)
	} else {
		archived := models.LifecycleArchived
		entry.ManualLifecycle = &archived
		m.status = fmt.Sprintf("%s archived", entry.ID)
	}
	m.save(entry)
}

func (m Model) startNoteForm() (tea.Model, tea.Cmd) {
	entry := m.entry(m.SelectedDayID())
	if len(entry.Notes) >= constants.MaxNotesPerDay {
		m.status = fmt.Sprintf("A day holds at most %d notes", constants.MaxNotesPerDay)
		return m, nil
	}
	m.noteForm = &NoteFormModel{Type: models.NoteFree}
	m.form = NewNoteForm(m.noteForm)
	m.state = StateAddNote
	return m, m.form.Init()
}

func (m Model) startTaskForm() (tea.Model, tea.Cmd) {
	entry := m.entry(m.SelectedDayID())
	if len(entry.Tasks) >= constants.MaxTasksPerDay {
		m.status = fmt.Sprintf("A day holds at most %d tasks", constants.MaxTasksPerDay)
		return m, nil
	}
	m.taskForm = &TaskFormModel{}
	m.form = NewTaskForm(m.taskForm)
	m.state = StateAddTask
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateDay
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		entry := m.entry(m.SelectedDayID())
		if m.state == StateAddNote {
			entry.Notes = append(append([]models.Note(nil), entry.Notes...), models.NewNote(m.noteForm.Text, m.noteForm.Type))
		} else {
			entry.Tasks = append(append([]models.Task(nil), entry.Tasks...), models.NewTask(m.taskForm.Text))
		}
		m.save(entry)
		m.state = StateDay
		m.form = nil
		return m, nil
	case huh.StateAborted:
		m.state = StateDay
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func requireText(max int) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("text is required")
		}
		if n := len([]rune(s)); n > max {
			return fmt.Errorf("text is %d characters, the limit is %d", n, max)
		}
		return nil
	}
}

func NewNoteForm(fm *NoteFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.NoteType]().
				Title("Type").
				Options(
					huh.NewOption("Free", models.NoteFree),
					huh.NewOption("Caption", models.NoteCaption),
					huh.NewOption("Reflection", models.NoteReflection),
				).
				Value(&fm.Type),
			huh.NewText().
				Title("Note").
				CharLimit(constants.MaxNoteLength).
				Value(&fm.Text).
				Validate(requireText(constants.MaxNoteLength)),
		),
	)
}

func NewTaskForm(fm *TaskFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				CharLimit(constants.MaxTaskLength).
				Value(&fm.Text).
				Validate(requireText(constants.MaxTaskLength)),
		),
	)
}
