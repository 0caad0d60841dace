package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabsHeight      int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabsHeight:      2,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, tab row and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.TabsHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the top header bar with a title on the left and
// status text on the right.
func (l Layout) RenderHeader(th *theme.Context, title, status string) string {
	style := th.Styles().Header
	titleRendered := style.Render(title)
	statusRendered := style.Align(lipgloss.Right).Render(status)

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered), 0)
	filler := style.Padding(0).Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, statusRendered)
}

// RenderTabs renders the tab row with the active tab underlined.
func (l Layout) RenderTabs(th *theme.Context, names []string, active int) string {
	styles := th.Styles()
	rendered := make([]string, len(names))
	for i, name := range names {
		if i == active {
			rendered[i] = styles.ActiveTab.Render(name)
		} else {
			rendered[i] = styles.Tab.Render(name)
		}
	}
	return lipgloss.NewStyle().
		Height(l.TabsHeight).
		Render(lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...))
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := max(l.Width-lipgloss.Width(rendered), 0)
	filler := theme.StatusBarStyle.Padding(0).Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, tabs, content area and status bar.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, statusBar)
}

// Centered renders text in the middle of a width x height box.
func Centered(width, height int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// JoinHints joins non-empty key hints with a separator.
func JoinHints(hints ...string) string {
	out := hints[:0:0]
	for _, h := range hints {
		if h != "" {
			out = append(out, h)
		}
	}
	return strings.Join(out, " | ")
}

// FormWidth clamps a form width to the panel.
func FormWidth(width int) int {
	return min(max(width-4, 40), 100)
}

// FormHeight clamps a form height to the panel.
func FormHeight(height int) int {
	return max(height-4, 10)
}
