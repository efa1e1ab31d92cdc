package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/models"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateMonth:
		content = m.viewMonth()
	case StateDay:
		content = m.viewDay()
	case StateAddNote, StateAddTask:
		content = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.SelectedDayID()),
			m.form.View(),
		)
	}

	status := ""
	if m.status != "" {
		status = warningStyle.Render(m.status)
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		status,
		m.help.View(m.keys),
	))
}

func (m Model) viewMonth() string {
	grid := calendar.BuildMonthGrid(m.year, m.monthIndex0)
	todayID := m.today.Format(constants.DateFormat)

	header := make([]string, len(weekdays))
	for i, w := range weekdays {
		header[i] = weekdayStyle.Render(w)
	}
	rows := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", grid.Title(), m.mode)),
		lipgloss.JoinHorizontal(lipgloss.Top, header...),
	}

	for _, week := range grid.Weeks() {
		cells := make([]string, len(week))
		for i, c := range week {
			if c.Type != calendar.CellDay {
				cells[i] = cellStyle.Render("")
				continue
			}
			id := grid.DayID(c.Day)
			glyph := " "
			if e, ok := m.peek(id); ok {
				glyph = models.LifecycleGlyph(e.Lifecycle)
			}
			label := fmt.Sprintf("%2d%s", c.Day, glyph)
			switch {
			case c.Day == m.day:
				cells[i] = cursorStyle.Render(label)
			case id == todayID:
				cells[i] = todayStyle.Render(label)
			default:
				cells[i] = cellStyle.Render(label)
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	rows = append(rows, "", m.viewSummary())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// viewSummary is the one-line preview of the selected day under the grid.
func (m Model) viewSummary() string {
	e, ok := m.peek(m.SelectedDayID())
	if !ok || e.IsEmpty() {
		return mutedStyle.Render(m.SelectedDayID() + "  nothing recorded")
	}
	parts := []string{string(e.Lifecycle)}
	if e.Media != nil {
		parts = append(parts, string(e.Media.Type))
	}
	if n := len(e.Notes); n > 0 {
		parts = append(parts, fmt.Sprintf("%d notes", n))
	}
	if n := len(e.Tasks); n > 0 {
		done := 0
		for _, t := range e.Tasks {
			if t.Status == models.TaskDone {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d tasks done", done, n))
	}
	return fmt.Sprintf("%s  %s", m.SelectedDayID(), strings.Join(parts, " · "))
}

func (m Model) viewDay() string {
	e, _ := m.peek(m.SelectedDayID())

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s %s", models.LifecycleGlyph(e.Lifecycle), m.SelectedDayID(), e.Lifecycle)))
	b.WriteString("\n")

	if e.Media != nil {
		url := e.Media.URL
		if url == "" {
			url = mutedStyle.Render("(inline upload, not persisted)")
		}
		fmt.Fprintf(&b, "%s: %s\n\n", e.Media.Type, url)
	}

	b.WriteString(selectedStyle.Render("Notes"))
	b.WriteString("\n")
	if len(e.Notes) == 0 {
		b.WriteString(mutedStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, n := range e.Notes {
		fmt.Fprintf(&b, "  [%s] %s\n", n.Type, n.Text)
	}

	b.WriteString("\n")
	b.WriteString(selectedStyle.Render("Tasks"))
	b.WriteString("\n")
	if len(e.Tasks) == 0 {
		b.WriteString(mutedStyle.Render("  none"))
		b.WriteString("\n")
	}
	for i, t := range e.Tasks {
		line := fmt.Sprintf("%s %s", models.TaskStatusGlyph(t.Status), t.Text)
		if i == m.taskCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else if t.Status == models.TaskSkipped {
			b.WriteString(mutedStyle.Render("  " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if e.ManualLifecycle != nil {
		b.WriteString("\n")
		b.WriteString(dangerStyle.Render(fmt.Sprintf("Pinned as %s", *e.ManualLifecycle)))
	}
	return b.String()
}
