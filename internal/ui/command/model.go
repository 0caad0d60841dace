package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Commands lists what the palette understands, for the placeholder and help.
var Commands = []string{
	"tasks", "calendar", "families", "settings",
	"refresh", "context <family>", "theme <key>", "logout", "quit",
}

// Parse splits a palette line into a lower-cased command name and the
// rest of the line.
func Parse(line string) CommandMsg {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	return CommandMsg{Name: strings.ToLower(name), Arg: strings.TrimSpace(arg)}
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	theme  *theme.Context
	width  int
	height int
}

// New creates a new command palette model.
func New(th *theme.Context, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{
		input:  ti,
		theme:  th,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		line := m.input.Value()
		m.input.Reset()
		if strings.TrimSpace(line) == "" {
			return m, nil
		}
		cmd := Parse(line)
		return m, func() tea.Msg { return cmd }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := m.theme.Styles().Accent.MarginBottom(1).Render("Command Palette")
	hint := theme.HelpStyle.Render(strings.Join(Commands, " · "))

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.input.View(), "", hint)

	return m.theme.Styles().Panel.
		Width(max(m.width-4, 0)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus and clears the input.
func (m *Model) Blur() {
	m.input.Reset()
	m.input.Blur()
}
