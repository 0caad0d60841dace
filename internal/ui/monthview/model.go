package monthview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/calendar"
	"github.com/nhle/sharedspace/internal/keys"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/taskview"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
	"github.com/nhle/sharedspace/internal/ui/taskform"
)

// Operation names reported in ui.OpDoneMsg.
const (
	OpCreate = "create task"
	OpUpdate = "update task"
)

const cellWidth = 6

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var priorityCycle = []string{taskview.All, string(model.PriorityHigh), string(model.PriorityMedium), string(model.PriorityLow)}

// Model is the Calendar tab: a month grid with the selected day's tasks
// listed below it.
type Model struct {
	vm      *calendar.ViewModel
	keys    *keys.KeyMap
	theme   *theme.Context
	now     func() time.Time
	form    taskform.Model
	editing bool
	cursor  int
	width   int
	height  int
}

// New creates the Calendar tab over vm and selects today.
func New(vm *calendar.ViewModel, k *keys.KeyMap, th *theme.Context, width, height int) Model {
	vm.Today(time.Now())
	return Model{
		vm:     vm,
		keys:   k,
		theme:  th,
		now:    time.Now,
		form:   taskform.New(th, width, height),
		width:  width,
		height: height,
	}
}

// SetFamilies sets the families offered in the task form.
func (m *Model) SetFamilies(families []model.Family) {
	m.form.SetFamilies(families)
}

// Capturing reports whether the task form is open.
func (m Model) Capturing() bool { return m.editing }

// Refresh clamps the task cursor after the view-model changed.
func (m *Model) Refresh() tea.Cmd {
	n := len(m.vm.SelectedTasks())
	m.cursor = min(m.cursor, max(n-1, 0))
	return nil
}

// Update handles messages for the Calendar tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskform.CreatedMsg:
		m.editing = false
		vm := m.vm
		return m, ui.Run(OpCreate, func(ctx context.Context) error {
			_, err := vm.CreateTask(ctx, msg.Input)
			return err
		})

	case taskform.CancelMsg:
		m.editing = false
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.editing {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.move(-1)
	case key.Matches(msg, m.keys.Right):
		m.move(1)
	case key.Matches(msg, m.keys.Up):
		m.move(-7)
	case key.Matches(msg, m.keys.Down):
		m.move(7)
	case key.Matches(msg, m.keys.PrevMonth):
		m.vm.PrevMonth()
		m.vm.Select(m.vm.Month())
		m.cursor = 0
	case key.Matches(msg, m.keys.NextMonth):
		m.vm.NextMonth()
		m.vm.Select(m.vm.Month())
		m.cursor = 0
	case key.Matches(msg, m.keys.Today):
		m.vm.Today(m.now())
		m.cursor = 0
	case key.Matches(msg, m.keys.CyclePriority):
		m.vm.SetPriorityFilter(nextPriority(m.vm.PriorityFilter()))
		m.cursor = 0
	case msg.String() == "J":
		m.cursor = min(m.cursor+1, max(len(m.vm.SelectedTasks())-1, 0))
	case msg.String() == "K":
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.New):
		m.editing = true
		m.form.SetLocation(m.vm.Month().Location())
		cmd := m.form.StartCreate(m.vm.NewTaskDefaults())
		return m, cmd
	case key.Matches(msg, m.keys.ToggleComplete):
		tasks := m.vm.SelectedTasks()
		if m.cursor < len(tasks) {
			vm, id := m.vm, tasks[m.cursor].ID
			return m, ui.Run(OpUpdate, func(ctx context.Context) error {
				return vm.ToggleComplete(ctx, id)
			})
		}
	}
	return m, nil
}

// move shifts the selected day by days, following it across months.
func (m *Model) move(days int) {
	sel, ok := m.vm.Selected()
	if !ok {
		sel = m.vm.Month()
	}
	m.vm.Show(sel.AddDate(0, 0, days))
	m.cursor = 0
}

func nextPriority(cur string) string {
	for i, p := range priorityCycle {
		if p == cur {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return taskview.All
}

// View renders the Calendar tab.
func (m Model) View() string {
	if m.editing {
		return m.form.View()
	}

	now := m.now()
	stats := m.vm.MonthStats(now)
	title := m.theme.Styles().Accent.Render(m.vm.Month().Format("January 2006"))
	summary := theme.HelpStyle.Render(fmt.Sprintf("  %d due · %d done · %d overdue · %d%% complete · priority %s",
		stats.Total, stats.Completed, stats.Overdue, stats.CompletionRate(), m.vm.PriorityFilter()))

	grid := m.renderGrid(now)
	day := m.renderDay(now)

	return lipgloss.NewStyle().Padding(0, 1).Render(
		lipgloss.JoinVertical(lipgloss.Left, title+summary, "", grid, "", day),
	)
}

func (m Model) renderGrid(now time.Time) string {
	styles := m.theme.Styles()
	loc := m.vm.Month().Location()
	sel, hasSel := m.vm.Selected()

	var rows []string
	header := make([]string, len(weekdays))
	for i, d := range weekdays {
		header[i] = lipgloss.NewStyle().Width(cellWidth).Foreground(theme.ColorGray).Render(d)
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	cells := m.vm.Grid()
	for week := 0; week < len(cells); week += 7 {
		line := make([]string, 7)
		for i, c := range cells[week : week+7] {
			label := fmt.Sprintf("%2d", c.Date.Day())
			if n := len(m.vm.TasksOn(c.Date)); n > 0 {
				label += dots(n)
			}

			style := lipgloss.NewStyle().Width(cellWidth)
			switch {
			case hasSel && c.Date.Equal(sel):
				style = styles.Today.Width(cellWidth)
			case taskview.SameDay(c.Date, now, loc):
				style = styles.Accent.Width(cellWidth)
			case !c.InMonth:
				style = theme.DimmedStyle.Width(cellWidth)
			}
			line[i] = style.Render(label)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func dots(n int) string {
	if n > 3 {
		return "+"
	}
	return strings.Repeat("•", n)
}

func (m Model) renderDay(now time.Time) string {
	sel, ok := m.vm.Selected()
	if !ok {
		return theme.HelpStyle.Render("Select a day to see its tasks.")
	}

	heading := lipgloss.NewStyle().Bold(true).Render(sel.Format("Monday, January 2"))
	tasks := m.vm.SelectedTasks()
	if len(tasks) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, heading,
			theme.HelpStyle.Render("No tasks due. Press n to add one for this day."))
	}

	lines := []string{heading}
	for i, t := range tasks {
		mark := "○"
		if t.IsCompleted() {
			mark = "✓"
		}
		line := fmt.Sprintf("%s %s %s", mark,
			theme.PriorityStyle(string(t.Priority)).Render(string(t.Priority)), t.Title)
		if t.IsOverdue(now) {
			line += " " + theme.OverdueStyle.Render("OVERDUE")
		}
		if i == m.cursor {
			line = m.theme.Styles().Selected.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Hints returns the key hints for the status bar.
func (m Model) Hints() string {
	if m.editing {
		return "enter submit | esc cancel"
	}
	return "h/j/k/l move | [ ] month | t today | p priority | n new | J/K pick | x done"
}

// SetSize updates the tab dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form.SetSize(width, height)
}
