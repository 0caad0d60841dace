package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/credential"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/session"
	"github.com/nhle/sharedspace/internal/store"
	appsync "github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui/command"
	"github.com/nhle/sharedspace/tests/testutil"
)

type harness struct {
	store    store.Store
	provider *session.Provider
	hub      *appsync.Hub
	deps     Deps
}

func newHarness(t *testing.T) harness {
	t.Helper()
	s := testutil.NewTestStore(t)
	log := zap.NewNop()
	p := session.NewProvider(s, &credential.Memory{}, log)
	hub := appsync.New(s, log)
	t.Cleanup(hub.Attach(p))

	return harness{
		store:    s,
		provider: p,
		hub:      hub,
		deps: Deps{
			Store:    s,
			Session:  p,
			Hub:      hub,
			Theme:    theme.NewContext(model.DefaultTheme, nil),
			Log:      log,
			Location: time.UTC,
		},
	}
}

// signIn creates a user owning one family and one task, then logs in.
func (h harness) signIn(t *testing.T) (model.User, model.Family) {
	t.Helper()
	ctx := context.Background()

	u := testutil.SeedUser(t, h.store, "me@example.com", "Me")
	f, err := h.store.CreateFamily(ctx, model.Family{Name: "Smiths", OwnerID: u.ID})
	require.NoError(t, err)
	_, err = h.store.CreateMember(ctx, model.FamilyMember{
		FamilyID: f.ID, UserID: u.ID, Email: u.Email,
		Role: model.RoleAdmin, Status: model.MemberStatusActive,
	})
	require.NoError(t, err)
	_, err = h.store.CreateTask(ctx, model.Task{
		Title: "Buy milk", Status: model.TaskStatusTodo, Priority: model.PriorityLow,
		UserID: u.ID, CreatedBy: u.ID,
	})
	require.NoError(t, err)

	_, err = h.provider.Login(ctx, u.Email, "")
	require.NoError(t, err)
	return u, f
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewSignedOut(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.provider.Restore(context.Background()))

	m := New(h.deps)
	assert.False(t, m.signedIn())
	assert.Empty(t, m.taskVM.Tasks())
	assert.NotNil(t, m.Init())
}

func TestNewAppliesCurrentSnapshot(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	m := New(h.deps)
	require.True(t, m.signedIn())
	assert.Len(t, m.taskVM.Tasks(), 1)
	assert.Len(t, m.familyVM.MyFamilies(), 1)
	assert.Equal(t, "Me", m.settingsVM.DisplayName())
}

func TestSnapshotForOtherUserIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	m := New(h.deps)

	next, _ := m.Update(appsync.SnapshotMsg{Snapshot: appsync.Snapshot{
		UserID: "someone-else",
		Tasks:  []model.Task{{ID: "x", Title: "not mine"}},
	}})
	m = next.(Model)

	assert.Empty(t, m.taskVM.Tasks())
}

func TestFamilyContextCycles(t *testing.T) {
	h := newHarness(t)
	_, f := h.signIn(t)
	m := New(h.deps)

	next, _ := m.Update(runeKey("c"))
	m = next.(Model)
	require.NotNil(t, m.family)
	assert.Equal(t, f.ID, m.family.ID)
	assert.Contains(t, m.headerStatus(), "Smiths")

	next, _ = m.Update(runeKey("c"))
	m = next.(Model)
	assert.Nil(t, m.family)
	assert.Contains(t, m.headerStatus(), "personal")
}

func TestTabKeysSwitchTabs(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	m := New(h.deps)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, TabCalendar, m.tab)
	assert.NotNil(t, cmd)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabSettings, next.(Model).tab)
}

func TestSignOutSnapshotResets(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	m := New(h.deps)
	m.tab = TabFamilies

	require.NoError(t, h.provider.Logout(context.Background()))
	next, cmd := m.Update(appsync.SnapshotMsg{Snapshot: h.hub.Current()})
	m = next.(Model)

	assert.False(t, m.signedIn())
	assert.Equal(t, TabTasks, m.tab)
	assert.Empty(t, m.taskVM.Tasks())
	assert.Empty(t, m.familyVM.MyFamilies())
	assert.NotNil(t, cmd)
}

func TestCommands(t *testing.T) {
	h := newHarness(t)
	_, f := h.signIn(t)
	m := New(h.deps)

	m.executeCommand(command.CommandMsg{Name: "families"})
	assert.Equal(t, TabFamilies, m.tab)

	m.executeCommand(command.CommandMsg{Name: "context", Arg: "smi"})
	require.NotNil(t, m.family)
	assert.Equal(t, f.ID, m.family.ID)

	m.executeCommand(command.CommandMsg{Name: "context", Arg: "none"})
	assert.Nil(t, m.family)

	m.executeCommand(command.CommandMsg{Name: "context", Arg: "jones"})
	assert.True(t, m.statusErr)

	m.executeCommand(command.CommandMsg{Name: "theme", Arg: "teal"})
	assert.Equal(t, "teal", h.deps.Theme.Palette().Key)
	assert.Equal(t, "teal", m.settingsVM.Preferences().Theme)

	m.executeCommand(command.CommandMsg{Name: "dance"})
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "dance")
}

func TestFindFamily(t *testing.T) {
	families := []model.Family{{ID: "1", Name: "Smith House"}, {ID: "2", Name: "Smith"}}

	f, ok := findFamily(families, "smith")
	require.True(t, ok)
	assert.Equal(t, "2", f.ID)

	f, ok = findFamily(families, "smith h")
	require.True(t, ok)
	assert.Equal(t, "1", f.ID)

	_, ok = findFamily(families, "jones")
	assert.False(t, ok)
}
