package signin

import (
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
)

// SubmitMsg carries the credentials entered in the sign-in form.
type SubmitMsg struct {
	Email       string
	DisplayName string
}

// QuitMsg is sent when the user aborts the sign-in form.
type QuitMsg struct{}

type formBindings struct {
	email       string
	displayName string
}

// Model is the sign-in screen shown while no user is signed in.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	theme  *theme.Context
	err    string
	width  int
	height int
}

// New creates the sign-in screen.
func New(th *theme.Context, width, height int) Model {
	return Model{fb: &formBindings{}, theme: th, width: width, height: height}
}

// Start opens a fresh form, keeping the last entered email.
func (m *Model) Start() tea.Cmd {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Display name").
				Description("Used when this email signs in for the first time").
				Value(&m.fb.displayName),
		),
	).WithWidth(min(ui.FormWidth(m.width), 60)).WithShowHelp(true)
	return m.form.Init()
}

// SetError shows a failed sign-in attempt under the form.
func (m *Model) SetError(err error) {
	if err == nil {
		m.err = ""
		return
	}
	m.err = err.Error()
}

// Update handles messages for the sign-in screen.
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
		return m, ui.Emit(SubmitMsg{
			Email:       strings.TrimSpace(m.fb.email),
			DisplayName: strings.TrimSpace(m.fb.displayName),
		})
	case huh.StateAborted:
		m.form = nil
		return m, ui.Emit(QuitMsg{})
	}
	return m, cmd
}

// View renders the sign-in screen.
func (m Model) View() string {
	title := m.theme.Styles().Accent.Render("Welcome to SharedSpace")
	sub := theme.HelpStyle.Render("Sign in with your email to see your tasks and families.")

	body := "Signing in..."
	if m.form != nil {
		body = m.form.View()
	}
	parts := []string{title, sub, "", body}
	if m.err != "" {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err))
	}

	box := m.theme.Styles().Panel.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("not an email address")
	}
	return nil
}
