package settingsform

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/settings"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
)

// OpSave is the operation name reported in ui.OpDoneMsg.
const OpSave = "save settings"

// Notification and privacy toggles, as multi-select option values.
const (
	notifyEmail     = "email"
	notifyPush      = "push"
	notifyReminders = "reminders"
	notifyFamily    = "family"
	notifyDigest    = "digest"

	privacyActivity = "activity"
	privacySharing  = "sharing"

	appearanceDark    = "dark"
	appearanceCompact = "compact"
)

type formBindings struct {
	displayName string
	bio         string
	location    string
	phone       string
	notify      []string
	theme       string
	appearance  []string
	visibility  string
	privacy     []string
}

// Model is the Settings tab.
type Model struct {
	vm      *settings.ViewModel
	theme   *theme.Context
	form    *huh.Form
	fb      *formBindings
	applied string
	width   int
	height  int
}

// New creates the Settings tab over vm.
func New(vm *settings.ViewModel, th *theme.Context, width, height int) Model {
	return Model{
		vm:     vm,
		theme:  th,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Capturing reports whether the form holds keyboard focus. The settings
// form is always focused once opened.
func (m Model) Capturing() bool { return m.form != nil }

// Open loads the view-model state into a fresh form.
func (m *Model) Open() tea.Cmd {
	m.fb.load(m.vm.DisplayName(), m.vm.Preferences())
	m.applied = m.fb.theme
	m.form = m.buildForm()
	return m.form.Init()
}

// Close drops the form without saving.
func (m *Model) Close() {
	m.form = nil
}

// Refresh reloads the form when it is not being edited.
func (m *Model) Refresh() tea.Cmd {
	if m.form != nil {
		return nil
	}
	m.fb.load(m.vm.DisplayName(), m.vm.Preferences())
	return nil
}

// Update handles messages for the Settings tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			cmd := m.Open()
			return m, cmd
		}
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	var themeCmd tea.Cmd
	if m.fb.theme != m.applied {
		m.applied = m.fb.theme
		key := m.fb.theme
		vm := m.vm
		if err := vm.SelectTheme(key); err != nil {
			themeCmd = ui.Emit(ui.OpDoneMsg{Op: "apply theme", Err: err})
		}
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		m.vm.SetDisplayName(m.fb.displayName)
		m.vm.SetPreferences(m.fb.preferences(m.vm.Preferences()))
		vm := m.vm
		return m, tea.Batch(themeCmd, ui.Run(OpSave, vm.Save))
	case huh.StateAborted:
		m.form = nil
		return m, themeCmd
	}

	return m, tea.Batch(cmd, themeCmd)
}

func (fb *formBindings) load(name string, p model.Preferences) {
	fb.displayName = name
	fb.bio = p.Bio
	fb.location = p.Location
	fb.phone = p.Phone
	fb.theme = p.Theme
	if _, ok := theme.Lookup(fb.theme); !ok {
		fb.theme = model.DefaultTheme
	}
	fb.visibility = p.ProfileVisibility
	if fb.visibility == "" {
		fb.visibility = model.VisibilityFriends
	}

	fb.notify = pick(map[string]bool{
		notifyEmail:     p.EmailNotifications,
		notifyPush:      p.PushNotifications,
		notifyReminders: p.TaskReminders,
		notifyFamily:    p.FamilyUpdates,
		notifyDigest:    p.WeeklyDigest,
	})
	fb.appearance = pick(map[string]bool{
		appearanceDark:    p.DarkMode,
		appearanceCompact: p.CompactMode,
	})
	fb.privacy = pick(map[string]bool{
		privacyActivity: p.ActivityStatus,
		privacySharing:  p.DataSharing,
	})
}

// preferences copies the form onto base.
func (fb formBindings) preferences(base model.Preferences) model.Preferences {
	p := base
	p.Bio = fb.bio
	p.Location = fb.location
	p.Phone = fb.phone
	p.Theme = fb.theme
	p.ProfileVisibility = fb.visibility

	p.EmailNotifications = slices.Contains(fb.notify, notifyEmail)
	p.PushNotifications = slices.Contains(fb.notify, notifyPush)
	p.TaskReminders = slices.Contains(fb.notify, notifyReminders)
	p.FamilyUpdates = slices.Contains(fb.notify, notifyFamily)
	p.WeeklyDigest = slices.Contains(fb.notify, notifyDigest)

	p.DarkMode = slices.Contains(fb.appearance, appearanceDark)
	p.CompactMode = slices.Contains(fb.appearance, appearanceCompact)

	p.ActivityStatus = slices.Contains(fb.privacy, privacyActivity)
	p.DataSharing = slices.Contains(fb.privacy, privacySharing)
	return p
}

func pick(flags map[string]bool) []string {
	var out []string
	for k, on := range flags {
		if on {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func (m *Model) buildForm() *huh.Form {
	themeOpts := make([]huh.Option[string], len(theme.Palettes))
	for i, p := range theme.Palettes {
		themeOpts[i] = huh.NewOption(p.Name, p.Key)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Display name").Value(&m.fb.displayName),
			huh.NewText().Title("Bio").Placeholder("A few words about you").Value(&m.fb.bio),
			huh.NewInput().Title("Location").Value(&m.fb.location),
			huh.NewInput().Title("Phone").Value(&m.fb.phone),
		).Title("Profile"),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Notify me about").
				Options(
					huh.NewOption("Email notifications", notifyEmail),
					huh.NewOption("Push notifications", notifyPush),
					huh.NewOption("Task reminders", notifyReminders),
					huh.NewOption("Family updates", notifyFamily),
					huh.NewOption("Weekly digest", notifyDigest),
				).
				Value(&m.fb.notify),
		).Title("Notifications"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Description("Applied right away").
				Options(themeOpts...).
				Value(&m.fb.theme),
			huh.NewMultiSelect[string]().
				Title("Display").
				Options(
					huh.NewOption("Dark mode", appearanceDark),
					huh.NewOption("Compact mode", appearanceCompact),
				).
				Value(&m.fb.appearance),
		).Title("Appearance"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Profile visibility").
				Options(
					huh.NewOption("Public", model.VisibilityPublic),
					huh.NewOption("Friends", model.VisibilityFriends),
					huh.NewOption("Private", model.VisibilityPrivate),
				).
				Value(&m.fb.visibility),
			huh.NewMultiSelect[string]().
				Title("Sharing").
				Options(
					huh.NewOption("Show activity status", privacyActivity),
					huh.NewOption("Share usage data", privacySharing),
				).
				Value(&m.fb.privacy),
		).Title("Privacy"),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// View renders the Settings tab.
func (m Model) View() string {
	if m.form == nil {
		p := m.vm.Preferences()
		palette, _ := theme.Lookup(p.Theme)
		summary := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Styles().Accent.Render("Settings"),
			"",
			"Name:  "+m.vm.DisplayName(),
			"Theme: "+palette.Name,
			"",
			theme.HelpStyle.Render("Press any key to edit."),
		)
		return lipgloss.NewStyle().Padding(1, 2).Render(summary)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

// Hints returns the key hints for the status bar.
func (m Model) Hints() string {
	if m.form != nil {
		return "tab/enter next | shift+tab back | esc discard"
	}
	return "any key edit"
}

// SetSize updates the tab dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
