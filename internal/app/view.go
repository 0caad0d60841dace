package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
)

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.state.IsLoading() {
		return ui.Centered(m.layout.Width, m.layout.Height, "Restoring session...")
	}
	if !m.signedIn() {
		return m.signin.View()
	}

	names := make([]string, len(Tabs))
	for i, t := range Tabs {
		names[i] = t.String()
	}

	header := m.layout.RenderHeader(m.deps.Theme, "SharedSpace", m.headerStatus())
	tabs := m.layout.RenderTabs(m.deps.Theme, names, int(m.tab))
	status := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, tabs, m.content(), status)
}

func (m Model) content() string {
	switch m.overlay {
	case overlayHelp:
		return m.helpView.View()
	case overlayCommand:
		return m.commandView.View()
	}

	switch m.tab {
	case TabCalendar:
		return m.calendar.View()
	case TabFamilies:
		return m.families.View()
	case TabSettings:
		return m.settings.View()
	default:
		return m.tasks.View()
	}
}

// headerStatus names the signed-in user and the family new tasks go to.
func (m Model) headerStatus() string {
	u, _ := m.state.User()
	scope := "personal"
	if m.family != nil {
		scope = m.family.Name
	}
	return u.Name() + " · " + scope
}

func (m Model) statusLine() string {
	hints := m.tabHints()
	if m.status == "" {
		return hints
	}
	style := m.deps.Theme.Styles().Accent
	if m.statusErr {
		style = theme.ErrorStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(m.status), "  ", hints)
}

func (m Model) tabHints() string {
	if m.overlay != overlayNone {
		return ui.JoinHints("esc close")
	}
	switch m.tab {
	case TabCalendar:
		return m.calendar.Hints()
	case TabFamilies:
		return m.families.Hints()
	case TabSettings:
		return m.settings.Hints()
	default:
		return m.tasks.Hints()
	}
}
