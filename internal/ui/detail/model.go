package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/keys"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// EditMsg asks the parent to open the edit form for the shown task.
type EditMsg struct {
	Task model.Task
}

// Model shows one task in a scrollable viewport.
type Model struct {
	task       *model.Task
	familyName string
	viewport   viewport.Model
	keys       *keys.KeyMap
	theme      *theme.Context
	loc        *time.Location
	now        time.Time
	width      int
	height     int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, th *theme.Context, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		theme:    th,
		loc:      time.Local,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, ui.Emit(BackMsg{})
		case key.Matches(msg, m.keys.Edit):
			if m.task != nil {
				return m, ui.Emit(EditMsg{Task: *m.task})
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return ui.Centered(m.width, m.height, "No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	sections = append(sections, m.theme.Styles().Accent.Render(task.Title))

	statusBadge := theme.StatusStyle(string(task.Status)).Render(string(task.Status))
	priBadge := theme.PriorityStyle(string(task.Priority)).Render(string(task.Priority))
	badgeLine := lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", priBadge)
	if task.IsOverdue(m.now) {
		badgeLine = lipgloss.JoinHorizontal(lipgloss.Top, badgeLine, "  ", theme.OverdueStyle.Render("OVERDUE"))
	}
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(10)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(label, value string) {
		sections = append(sections, metaStyle.Render(label+":")+" "+valStyle.Render(value))
	}

	if task.DueDate != nil {
		meta("Due", task.DueDate.In(m.loc).Format("Mon, Jan 2 2006"))
	}
	family := "Personal"
	if m.familyName != "" {
		family = m.familyName
	}
	meta("Family", family)
	if !task.CreatedAt.IsZero() {
		meta("Created", task.CreatedAt.In(m.loc).Format("2006-01-02 15:04"))
	}
	if !task.UpdatedAt.IsZero() {
		meta("Updated", task.UpdatedAt.In(m.loc).Format("2006-01-02 15:04"))
	}

	separator := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	sections = append(sections, lipgloss.NewStyle().Bold(true).MarginBottom(1).Render("Description"))

	body := task.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body, "", theme.HelpStyle.Render(fmt.Sprintf("id %s", task.ID)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(t model.Task, familyName string, now time.Time, loc *time.Location) {
	m.task = &t
	m.familyName = familyName
	m.now = now
	m.loc = loc
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Task returns the shown task.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
