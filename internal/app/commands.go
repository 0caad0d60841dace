package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/ui"
	"github.com/nhle/sharedspace/internal/ui/command"
)

// executeCommand runs a line submitted from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "":
		return nil
	case "tasks":
		return m.activate(TabTasks)
	case "calendar":
		return m.activate(TabCalendar)
	case "families":
		return m.activate(TabFamilies)
	case "settings":
		return m.activate(TabSettings)
	case "refresh":
		return m.refresh()
	case "context":
		return m.contextCommand(c.Arg)
	case "theme":
		if err := m.settingsVM.SelectTheme(c.Arg); err != nil {
			return ui.Emit(ui.OpDoneMsg{Op: "apply theme", Err: err})
		}
		m.setStatus("Theme set to "+m.deps.Theme.Palette().Name+" (save settings to keep it)", false)
		return nil
	case "logout":
		return m.logout()
	case "quit", "q":
		return m.quit()
	}
	m.setStatus(fmt.Sprintf("Unknown command %q", c.Name), true)
	return nil
}

// contextCommand selects the family named arg, or personal scope for
// "none" and "personal".
func (m *Model) contextCommand(arg string) tea.Cmd {
	name := strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "", "none", "personal":
		m.setFamilyContext(nil)
		m.setStatus("New tasks are personal", false)
		return nil
	}

	if f, ok := findFamily(m.visibleFamilies(), name); ok {
		m.setFamilyContext(&f)
		m.setStatus("New tasks go to "+f.Name, false)
		return nil
	}
	m.setStatus(fmt.Sprintf("No family named %q", name), true)
	return nil
}

// findFamily matches name case-insensitively, falling back to a prefix match.
func findFamily(families []model.Family, name string) (model.Family, bool) {
	lower := strings.ToLower(name)
	for _, f := range families {
		if strings.ToLower(f.Name) == lower {
			return f, true
		}
	}
	for _, f := range families {
		if strings.HasPrefix(strings.ToLower(f.Name), lower) {
			return f, true
		}
	}
	return model.Family{}, false
}
