package monthview

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/calendar"
	"github.com/nhle/sharedspace/internal/keys"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/tests/testutil"
)

func newTab(t *testing.T) Model {
	t.Helper()
	now := time.Date(2026, 6, 30, 9, 0, 0, 0, time.UTC)
	vm := calendar.New(testutil.NewTestStore(t), zap.NewNop(), now, time.UTC)
	m := New(vm, keys.DefaultKeyMap(), theme.NewContext("indigo", nil), 80, 30)
	m.now = func() time.Time { return now }
	vm.Today(now)
	return m
}

func press(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestMoveFollowsSelectionAcrossMonths(t *testing.T) {
	m := newTab(t)

	m = press(m, "l")
	sel, ok := m.vm.Selected()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), sel)
	assert.Equal(t, time.July, m.vm.Month().Month())

	m = press(m, "k")
	sel, _ = m.vm.Selected()
	assert.Equal(t, time.Date(2026, 6, 24, 0, 0, 0, 0, time.UTC), sel)
	assert.Equal(t, time.June, m.vm.Month().Month())
}

func TestNewOpensFormForSelectedDay(t *testing.T) {
	m := newTab(t)

	m = press(m, "n")
	assert.True(t, m.Capturing())

	defaults := m.vm.NewTaskDefaults()
	require.NotNil(t, defaults.DueDate)
	assert.Equal(t, 30, defaults.DueDate.Day())
	assert.Equal(t, model.TaskStatusTodo, defaults.Status)
}

func TestPriorityCycle(t *testing.T) {
	m := newTab(t)

	m = press(m, "p")
	assert.Equal(t, "high", m.vm.PriorityFilter())
	for range 3 {
		m = press(m, "p")
	}
	assert.Equal(t, "all", m.vm.PriorityFilter())
}

func TestDots(t *testing.T) {
	assert.Equal(t, "••", dots(2))
	assert.Equal(t, "+", dots(7))
}
