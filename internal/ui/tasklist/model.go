package tasklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/keys"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/taskview"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
	"github.com/nhle/sharedspace/internal/ui/detail"
	"github.com/nhle/sharedspace/internal/ui/taskform"
)

// Operation names reported in ui.OpDoneMsg.
const (
	OpCreate = "create task"
	OpUpdate = "update task"
	OpDelete = "delete task"
)

var statusCycle = []string{taskview.All, string(model.TaskStatusTodo), string(model.TaskStatusInProgress), string(model.TaskStatusCompleted)}

var priorityCycle = []string{taskview.All, string(model.PriorityHigh), string(model.PriorityMedium), string(model.PriorityLow)}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeDetail
	modeForm
)

// Model is the Tasks tab.
type Model struct {
	vm       *taskview.ViewModel
	keys     *keys.KeyMap
	theme    *theme.Context
	now      func() time.Time
	mode     mode
	bucket   taskview.Bucket
	list     list.Model
	search   textinput.Model
	detail   detail.Model
	form     taskform.Model
	families map[string]string
	width    int
	height   int
}

// New creates the Tasks tab over vm.
func New(vm *taskview.ViewModel, k *keys.KeyMap, th *theme.Context, width, height int) Model {
	m := Model{
		vm:       vm,
		keys:     k,
		theme:    th,
		now:      time.Now,
		bucket:   taskview.BucketAll,
		detail:   detail.New(k, th, width, height),
		form:     taskform.New(th, width, height),
		families: make(map[string]string),
		width:    width,
		height:   height,
	}

	delegate := ItemDelegate{theme: th, families: m.families, now: time.Now, loc: vm.Location}
	l := list.New([]list.Item{}, delegate, width, height-3)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	m.list = l

	si := textinput.New()
	si.Placeholder = "search title or description..."
	si.Prompt = "/ "
	si.Width = width - 4
	m.search = si

	return m
}

// SetFamilies updates the family names shown next to tasks and offered
// in the form.
func (m *Model) SetFamilies(families []model.Family) {
	clear(m.families)
	for _, f := range families {
		m.families[f.ID] = f.Name
	}
	m.form.SetFamilies(families)
}

// Capturing reports whether the tab consumes every key (search or form).
func (m Model) Capturing() bool {
	return m.mode == modeSearch || m.mode == modeForm
}

// Refresh rebuilds the visible rows from the view-model.
func (m *Model) Refresh() tea.Cmd {
	m.form.SetLocation(m.vm.Location())
	tasks := m.vm.Visible(m.bucket, m.now())
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t}
	}
	cmd := m.list.SetItems(items)

	if t, ok := m.detail.Task(); ok && m.mode == modeDetail {
		if fresh, ok := m.vm.Task(t.ID); ok {
			m.detail.SetTask(fresh, m.familyName(fresh), m.now(), m.vm.Location())
		} else {
			m.mode = modeList
		}
	}
	return cmd
}

// OpenCreate opens the create form with defaults.
func (m *Model) OpenCreate(defaults model.TaskInput) tea.Cmd {
	m.mode = modeForm
	return m.form.StartCreate(defaults)
}

// Update handles messages for the Tasks tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskform.CreatedMsg:
		m.mode = modeList
		vm := m.vm
		return m, ui.Run(OpCreate, func(ctx context.Context) error {
			_, err := vm.CreateTask(ctx, msg.Input)
			return err
		})

	case taskform.UpdatedMsg:
		m.mode = modeList
		if msg.Patch.Empty() {
			return m, nil
		}
		return m, m.update(msg.ID, msg.Patch)

	case taskform.CancelMsg:
		m.mode = modeList
		return m, nil

	case detail.BackMsg:
		m.mode = modeList
		return m, nil

	case detail.EditMsg:
		m.mode = modeForm
		cmd := m.form.StartEdit(msg.Task)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKeys(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeDetail:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		return m.handleListKeys(msg)
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// handleSearchKeys filters as the user types; enter keeps the query and
// esc clears it.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeList
		m.search.Reset()
		m.search.Blur()
		m.setSearch("")
		cmd := m.Refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setSearch(m.search.Value())
	refresh := m.Refresh()
	return m, tea.Batch(cmd, refresh)
}

func (m *Model) setSearch(q string) {
	f := m.vm.Filter()
	f.Search = q
	m.vm.SetFilter(f)
}

func (m Model) selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.vm.Filter().Search)
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleBucket):
		m.bucket = next(taskview.Buckets, m.bucket)
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.Right):
		m.bucket = next(taskview.Buckets, m.bucket)
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.Left):
		m.bucket = prev(taskview.Buckets, m.bucket)
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.CycleStatus):
		f := m.vm.Filter()
		f.Status = next(statusCycle, orAll(f.Status))
		m.vm.SetFilter(f)
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.CyclePriority):
		f := m.vm.Filter()
		f.Priority = next(priorityCycle, orAll(f.Priority))
		m.vm.SetFilter(f)
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.ClearFilters):
		m.vm.SetFilter(taskview.Filter{})
		m.search.Reset()
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.New):
		cmd := m.OpenCreate(model.TaskInput{})
		return m, cmd

	case key.Matches(msg, m.keys.Select):
		if t, ok := m.selected(); ok {
			m.mode = modeDetail
			m.detail.SetTask(t, m.familyName(t), m.now(), m.vm.Location())
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			m.mode = modeForm
			cmd := m.form.StartEdit(t)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleComplete):
		if t, ok := m.selected(); ok {
			vm := m.vm
			return m, ui.Run(OpUpdate, func(ctx context.Context) error {
				return vm.ToggleComplete(ctx, t.ID)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleProgress):
		if t, ok := m.selected(); ok {
			vm := m.vm
			return m, ui.Run(OpUpdate, func(ctx context.Context) error {
				return vm.ToggleInProgress(ctx, t.ID)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			vm := m.vm
			return m, ui.Run(OpDelete, func(ctx context.Context) error {
				return vm.DeleteTask(ctx, t.ID)
			})
		}
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) update(id string, patch model.TaskPatch) tea.Cmd {
	vm := m.vm
	return ui.Run(OpUpdate, func(ctx context.Context) error {
		return vm.UpdateTask(ctx, id, patch)
	})
}

func (m Model) familyName(t model.Task) string {
	if t.FamilyID == nil {
		return ""
	}
	return m.families[*t.FamilyID]
}

// View renders the Tasks tab.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.form.View()
	case modeDetail:
		return m.detail.View()
	}

	header := lipgloss.JoinVertical(lipgloss.Left, m.renderBuckets(), m.renderStats())
	var body string
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	} else {
		body = m.list.View()
	}
	if m.mode == modeSearch {
		body = lipgloss.JoinVertical(lipgloss.Left, m.search.View(), body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (m Model) renderBuckets() string {
	counts := m.vm.BucketCounts(m.now())
	styles := m.theme.Styles()
	parts := make([]string, len(taskview.Buckets))
	for i, b := range taskview.Buckets {
		label := fmt.Sprintf("%s (%d)", bucketLabel(b), counts[b])
		if b == m.bucket {
			parts[i] = styles.Accent.Padding(0, 1).Render(label)
		} else {
			parts[i] = lipgloss.NewStyle().Foreground(theme.ColorGray).Padding(0, 1).Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderStats() string {
	s := m.vm.Stats(m.now())
	line := fmt.Sprintf(" %d total · %d to do · %d in progress · %d done · %d overdue · %d%% complete",
		s.Total, s.Todo, s.InProgress, s.Completed, s.Overdue, s.CompletionRate())
	if summary := m.FilterSummary(); summary != "" {
		line += "   " + summary
	}
	return theme.HelpStyle.Render(line)
}

// FilterSummary describes the active filter, or "" when none is set.
func (m Model) FilterSummary() string {
	f := m.vm.Filter()
	if !f.Active() {
		return ""
	}
	var parts []string
	if q := f.Search; q != "" {
		parts = append(parts, fmt.Sprintf("search %q", q))
	}
	if orAll(f.Status) != taskview.All {
		parts = append(parts, "status "+f.Status)
	}
	if orAll(f.Priority) != taskview.All {
		parts = append(parts, "priority "+f.Priority)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	height := max(m.height-3, 1)
	if m.vm.Filter().Active() {
		return ui.Centered(m.width, height, "No matching tasks.\nPress 0 to clear filters.")
	}
	if m.bucket != taskview.BucketAll {
		return ui.Centered(m.width, height, fmt.Sprintf("Nothing in %s.", strings.ToLower(bucketLabel(m.bucket))))
	}
	return ui.Centered(m.width, height, "No tasks yet.\n\nPress n to create one.")
}

// Hints returns the key hints for the status bar.
func (m Model) Hints() string {
	switch m.mode {
	case modeSearch:
		return "enter keep | esc clear"
	case modeForm:
		return "enter submit | esc cancel"
	case modeDetail:
		return "esc back | e edit | j/k scroll"
	}
	return "n new | enter open | e edit | x done | s doing | d delete | / search | b view | f status | p priority"
}

// SetSize updates the tab dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-3, 1))
	m.search.Width = width - 4
	m.detail.SetSize(width, height)
	m.form.SetSize(width, height)
}

func bucketLabel(b taskview.Bucket) string {
	switch b {
	case taskview.BucketToday:
		return "Today"
	case taskview.BucketUpcoming:
		return "Upcoming"
	case taskview.BucketCompleted:
		return "Completed"
	default:
		return "All"
	}
}

func orAll(v string) string {
	if v == "" {
		return taskview.All
	}
	return v
}

func next[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

func prev[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+len(cycle)-1)%len(cycle)]
		}
	}
	return cycle[0]
}
