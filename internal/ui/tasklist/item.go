package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct {
	theme *theme.Context
	// families maps family IDs to names; shared by reference with Model.
	families map[string]string
	now      func() time.Time
	loc      func() *time.Location
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Task, index == m.Index()))
}

func (d ItemDelegate) renderLine(t model.Task, selected bool) string {
	prefix := "○"
	switch t.Status {
	case model.TaskStatusCompleted:
		prefix = "✓"
	case model.TaskStatusInProgress:
		prefix = "◐"
	}

	statusBadge := theme.StatusStyle(string(t.Status)).Render(shortStatus(t.Status))
	priBadge := theme.PriorityStyle(string(t.Priority)).Render(priorityLabel(t.Priority))

	parts := []string{prefix, statusBadge, priBadge, t.Title}

	if t.FamilyID != nil {
		if name, ok := d.families[*t.FamilyID]; ok {
			parts = append(parts, d.theme.Styles().Accent.Render("@"+name))
		}
	}
	if t.DueDate != nil {
		parts = append(parts, theme.HelpStyle.Render(dueLabel(*t.DueDate, d.now(), d.loc())))
	}
	if t.IsOverdue(d.now()) {
		parts = append(parts, theme.OverdueStyle.Render("OVERDUE"))
	}

	line := strings.Join(parts, " ")
	if t.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return d.theme.Styles().Selected.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// dueLabel renders a due date relative to today.
func dueLabel(due, now time.Time, loc *time.Location) string {
	due, now = due.In(loc), now.In(loc)
	days := int(civil(due).Sub(civil(now)).Hours() / 24)

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1 && days < 7:
		return due.Format("Mon")
	case due.Year() == now.Year():
		return due.Format("Jan 02")
	default:
		return due.Format("Jan 02 2006")
	}
}

// civil drops the clock and zone so date differences ignore DST shifts.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func shortStatus(s model.TaskStatus) string {
	switch s {
	case model.TaskStatusInProgress:
		return "DOING"
	case model.TaskStatusCompleted:
		return "DONE"
	default:
		return "TODO"
	}
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityMedium:
		return "!! "
	case model.PriorityLow:
		return "!  "
	default:
		return "?  "
	}
}
