package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
)

const dateLayout = "2006-01-02"

// CreatedMsg is dispatched when the create form is submitted.
type CreatedMsg struct {
	Input model.TaskInput
}

// UpdatedMsg is dispatched when the edit form is submitted.
type UpdatedMsg struct {
	ID    string
	Patch model.TaskPatch
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	status      model.TaskStatus
	priority    model.Priority
	dueDate     string
	familyID    string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	theme    *theme.Context
	loc      *time.Location
	original *model.Task
	families []model.Family
	width    int
	height   int
}

// New creates a new task form model.
func New(th *theme.Context, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		theme:  th,
		loc:    time.Local,
		width:  width,
		height: height,
	}
}

// SetLocation sets the zone due dates are entered in.
func (m *Model) SetLocation(loc *time.Location) {
	m.loc = loc
}

// SetFamilies sets the families offered in the family selector.
func (m *Model) SetFamilies(families []model.Family) {
	m.families = families
}

// Active reports whether a form is open.
func (m Model) Active() bool {
	return m.form != nil
}

// StartCreate opens the form pre-filled from defaults.
func (m *Model) StartCreate(defaults model.TaskInput) tea.Cmd {
	defaults = defaults.Normalize()
	m.original = nil
	m.fb.title = defaults.Title
	m.fb.description = defaults.Description
	m.fb.status = defaults.Status
	m.fb.priority = defaults.Priority
	m.fb.dueDate = formatDate(defaults.DueDate, m.loc)
	m.fb.familyID = deref(defaults.FamilyID)
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit opens the form for an existing task.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.original = &t
	m.fb.title = t.Title
	m.fb.description = t.Description
	m.fb.status = t.Status
	m.fb.priority = t.Priority
	m.fb.dueDate = formatDate(t.DueDate, m.loc)
	m.fb.familyID = deref(t.FamilyID)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		return m, ui.Emit(CancelMsg{})
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.original != nil {
		titleText = "Edit Task"
	}

	title := m.theme.Styles().Accent.MarginBottom(1).Render(titleText)
	content := title + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	statusOpts := make([]huh.Option[model.TaskStatus], 0, len(model.TaskStatuses))
	for _, s := range model.TaskStatuses {
		statusOpts = append(statusOpts, huh.NewOption(StatusLabel(s), s))
	}
	priorityOpts := make([]huh.Option[model.Priority], 0, len(model.Priorities))
	for _, p := range model.Priorities {
		priorityOpts = append(priorityOpts, huh.NewOption(strings.ToUpper(string(p[:1]))+string(p[1:]), p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewSelect[model.TaskStatus]().
				Title("Status").
				Options(statusOpts...).
				Value(&m.fb.status),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(priorityOpts...).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(validateOptionalDate),
			m.familyField(),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m *Model) familyField() huh.Field {
	opts := []huh.Option[string]{huh.NewOption("Personal", "")}
	for _, f := range m.families {
		opts = append(opts, huh.NewOption(f.Name, f.ID))
	}
	return huh.NewSelect[string]().
		Title("Family").
		Options(opts...).
		Value(&m.fb.familyID)
}

func (m Model) handleSubmit() tea.Cmd {
	if m.original == nil {
		return ui.Emit(CreatedMsg{Input: m.fb.input(m.loc)})
	}
	return ui.Emit(UpdatedMsg{ID: m.original.ID, Patch: m.fb.patch(*m.original, m.loc)})
}

func (fb formBindings) input(loc *time.Location) model.TaskInput {
	in := model.TaskInput{
		Title:       fb.title,
		Description: fb.description,
		Status:      fb.status,
		Priority:    fb.priority,
		DueDate:     parseDate(fb.dueDate, loc),
	}
	if fb.familyID != "" {
		id := fb.familyID
		in.FamilyID = &id
	}
	return in.Normalize()
}

// patch returns only the fields that differ from t.
func (fb formBindings) patch(t model.Task, loc *time.Location) model.TaskPatch {
	in := fb.input(loc)
	var p model.TaskPatch

	if in.Title != t.Title {
		p.Title = &in.Title
	}
	if in.Description != t.Description {
		p.Description = &in.Description
	}
	if in.Status != t.Status {
		p.Status = &in.Status
	}
	if in.Priority != t.Priority {
		p.Priority = &in.Priority
	}

	switch {
	case in.DueDate == nil && t.DueDate != nil:
		p.ClearDueDate = true
	case in.DueDate != nil && (t.DueDate == nil || !sameDate(*in.DueDate, *t.DueDate, loc)):
		p.DueDate = in.DueDate
	}

	switch {
	case in.FamilyID == nil && t.FamilyID != nil:
		p.ClearFamily = true
	case in.FamilyID != nil && deref(t.FamilyID) != *in.FamilyID:
		p.FamilyID = in.FamilyID
	}

	return p
}

// StatusLabel returns the display label for a status.
func StatusLabel(s model.TaskStatus) string {
	switch s {
	case model.TaskStatusInProgress:
		return "In progress"
	case model.TaskStatusCompleted:
		return "Completed"
	default:
		return "To do"
	}
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}

func parseDate(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return nil
	}
	return &t
}

func sameDate(a, b time.Time, loc *time.Location) bool {
	return a.In(loc).Format(dateLayout) == b.In(loc).Format(dateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
