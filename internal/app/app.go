package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/calendar"
	"github.com/nhle/sharedspace/internal/familyview"
	"github.com/nhle/sharedspace/internal/keys"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/session"
	"github.com/nhle/sharedspace/internal/settings"
	"github.com/nhle/sharedspace/internal/store"
	appsync "github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/internal/taskview"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
	"github.com/nhle/sharedspace/internal/ui/command"
	"github.com/nhle/sharedspace/internal/ui/familymgr"
	helpview "github.com/nhle/sharedspace/internal/ui/help"
	"github.com/nhle/sharedspace/internal/ui/monthview"
	"github.com/nhle/sharedspace/internal/ui/settingsform"
	"github.com/nhle/sharedspace/internal/ui/signin"
	"github.com/nhle/sharedspace/internal/ui/tasklist"
)

// Tab identifies one of the four main screens.
type Tab int

const (
	TabTasks Tab = iota
	TabCalendar
	TabFamilies
	TabSettings
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabTasks, TabCalendar, TabFamilies, TabSettings}

func (t Tab) String() string {
	switch t {
	case TabCalendar:
		return "Calendar"
	case TabFamilies:
		return "Families"
	case TabSettings:
		return "Settings"
	default:
		return "Tasks"
	}
}

// overlay is a panel drawn over the active tab.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
)

// opRefresh is the OpDoneMsg name of a hub refresh.
const opRefresh = "refresh"

// loginResultMsg reports the outcome of a sign-in attempt.
type loginResultMsg struct{ err error }

// Deps are the long-lived services the shell runs on.
type Deps struct {
	Store    store.Store
	Session  *session.Provider
	Hub      *appsync.Hub
	Theme    *theme.Context
	Log      *zap.Logger
	Location *time.Location
}

// Model is the root Bubble Tea model: it owns the session state, the
// active tab, the family context and one sub-model per tab.
type Model struct {
	deps   Deps
	keys   *keys.KeyMap
	layout ui.Layout
	ready  bool

	snapshots   <-chan appsync.Snapshot
	unsubscribe func()

	state   model.SessionState
	tab     Tab
	overlay overlay
	family  *model.Family

	taskVM     *taskview.ViewModel
	calendarVM *calendar.ViewModel
	familyVM   *familyview.ViewModel
	settingsVM *settings.ViewModel

	tasks       tasklist.Model
	calendar    monthview.Model
	families    familymgr.Model
	settings    settingsform.Model
	signin      signin.Model
	helpView    helpview.Model
	commandView command.Model

	status    string
	statusErr bool
}

// New creates the root model. It subscribes to the hub and applies the
// hub's current snapshot right away.
func New(d Deps) Model {
	if d.Location == nil {
		d.Location = time.Local
	}
	k := keys.DefaultKeyMap()

	taskVM := taskview.New(d.Store, d.Log)
	taskVM.SetLocation(d.Location)
	calendarVM := calendar.New(d.Store, d.Log, time.Now(), d.Location)
	familyVM := familyview.New(d.Store, d.Log)
	settingsVM := settings.New(d.Store, d.Session, d.Theme, d.Log)

	ch, unsubscribe := d.Hub.Subscribe()

	m := Model{
		deps:        d,
		keys:        k,
		snapshots:   ch,
		unsubscribe: unsubscribe,
		state:       d.Session.State(),
		taskVM:      taskVM,
		calendarVM:  calendarVM,
		familyVM:    familyVM,
		settingsVM:  settingsVM,
		tasks:       tasklist.New(taskVM, k, d.Theme, 80, 20),
		calendar:    monthview.New(calendarVM, k, d.Theme, 80, 20),
		families:    familymgr.New(familyVM, k, d.Theme, 80, 20),
		settings:    settingsform.New(settingsVM, d.Theme, 80, 20),
		signin:      signin.New(d.Theme, 80, 24),
		helpView:    helpview.New(k, d.Theme, 80, 20),
		commandView: command.New(d.Theme, 80, 20),
	}
	m.applySnapshot(d.Hub.Current())
	return m
}

// Init starts listening for snapshots and opens the sign-in form when
// nobody is signed in.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{appsync.Wait(m.snapshots)}
	if _, ok := m.state.User(); !ok {
		cmds = append(cmds, m.signin.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m.updateActive(msg)

	case appsync.SnapshotMsg:
		wasSignedIn := m.signedIn()
		cmds := []tea.Cmd{m.applySnapshot(msg.Snapshot), appsync.Wait(m.snapshots)}
		if wasSignedIn && !m.signedIn() {
			m.tab = TabTasks
			m.overlay = overlayNone
			m.settings.Close()
			cmds = append(cmds, m.signin.Start())
		}
		return m, tea.Batch(cmds...)

	case signin.SubmitMsg:
		m.signin.SetError(nil)
		return m, m.login(msg.Email, msg.DisplayName)

	case signin.QuitMsg:
		return m, m.quit()

	case loginResultMsg:
		if msg.err != nil {
			m.signin.SetError(msg.err)
			cmd := m.signin.Start()
			return m, cmd
		}
		m.state = m.deps.Session.State()
		return m, nil

	case ui.OpDoneMsg:
		cmd := m.handleOpDone(msg)
		return m, cmd

	case familymgr.ContextMsg:
		f := msg.Family
		m.setFamilyContext(&f)
		m.setStatus("New tasks go to "+f.Name, false)
		return m, nil

	case command.CommandMsg:
		m.overlay = overlayNone
		m.commandView.Blur()
		cmd := m.executeCommand(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if !m.signedIn() {
			var cmd tea.Cmd
			m.signin, cmd = m.signin.Update(msg)
			return m, cmd
		}
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActive(msg)
}

// handleGlobalKey processes keys that work on every tab. Keys are left
// to the tab while it captures input.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch m.overlay {
	case overlayHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.overlay = overlayNone
		}
		return true, m, nil
	case overlayCommand:
		if key.Matches(msg, m.keys.Back) {
			m.overlay = overlayNone
			m.commandView.Blur()
			return true, m, nil
		}
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return true, m, cmd
	}

	if m.capturing() {
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return true, m, nil
	case key.Matches(msg, m.keys.Command):
		m.overlay = overlayCommand
		cmd := m.commandView.Focus()
		return true, m, cmd
	case key.Matches(msg, m.keys.NextTab):
		cmd := m.activate(Tabs[(int(m.tab)+1)%len(Tabs)])
		return true, m, cmd
	case key.Matches(msg, m.keys.PrevTab):
		cmd := m.activate(Tabs[(int(m.tab)+len(Tabs)-1)%len(Tabs)])
		return true, m, cmd
	case key.Matches(msg, m.keys.Refresh):
		return true, m, m.refresh()
	case key.Matches(msg, m.keys.FamilyContext):
		m.cycleFamilyContext()
		return true, m, nil
	case key.Matches(msg, m.keys.Logout):
		return true, m, m.logout()
	}
	return false, m, nil
}

// updateActive dispatches the message to the visible screen.
func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if !m.signedIn() {
		m.signin, cmd = m.signin.Update(msg)
		return m, cmd
	}

	switch m.tab {
	case TabTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case TabCalendar:
		m.calendar, cmd = m.calendar.Update(msg)
	case TabFamilies:
		m.families, cmd = m.families.Update(msg)
	case TabSettings:
		m.settings, cmd = m.settings.Update(msg)
	}
	return m, cmd
}

func (m Model) capturing() bool {
	switch m.tab {
	case TabTasks:
		return m.tasks.Capturing()
	case TabCalendar:
		return m.calendar.Capturing()
	case TabFamilies:
		return m.families.Capturing()
	case TabSettings:
		return m.settings.Capturing()
	}
	return false
}

func (m Model) signedIn() bool {
	_, ok := m.state.User()
	return ok
}

// activate switches tabs and refreshes the shared snapshot.
func (m *Model) activate(t Tab) tea.Cmd {
	if m.tab == TabSettings && t != TabSettings {
		m.settings.Close()
	}
	m.tab = t
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	hub := m.deps.Hub
	return ui.Run(opRefresh, func(ctx context.Context) error {
		_, err := hub.Refresh(ctx)
		return err
	})
}

// applySnapshot hands snap to every view-model. A snapshot for anyone
// but the signed-in user counts as signed out.
func (m *Model) applySnapshot(snap appsync.Snapshot) tea.Cmd {
	m.state = m.deps.Session.State()
	u, ok := m.state.User()
	if !ok || snap.UserID != u.ID {
		snap = appsync.Snapshot{}
		if !ok {
			u = model.User{}
		}
	}

	m.taskVM.SetSnapshot(snap)
	m.calendarVM.SetSnapshot(snap)
	m.familyVM.SetSnapshot(u, snap)
	m.settingsVM.SetSnapshot(u, snap)

	if snap.Empty() {
		m.setFamilyContext(nil)
	} else if m.family != nil {
		if f, ok := m.familyVM.Family(m.family.ID); ok {
			m.setFamilyContext(&f)
		} else {
			m.setFamilyContext(nil)
		}
	}
	return m.refreshViews()
}

// refreshViews rebuilds every tab from its view-model.
func (m *Model) refreshViews() tea.Cmd {
	families := m.visibleFamilies()
	m.tasks.SetFamilies(families)
	m.calendar.SetFamilies(families)
	return tea.Batch(
		m.tasks.Refresh(),
		m.calendar.Refresh(),
		m.families.Refresh(),
		m.settings.Refresh(),
	)
}

func (m Model) visibleFamilies() []model.Family {
	return append(m.familyVM.MyFamilies(), m.familyVM.MemberFamilies()...)
}

// setFamilyContext scopes new tasks to f, or to no family when f is nil.
func (m *Model) setFamilyContext(f *model.Family) {
	m.family = f
	var id *string
	if f != nil {
		id = &f.ID
	}
	m.taskVM.SetFamilyContext(id)
	m.calendarVM.SetFamilyContext(id)
}

// cycleFamilyContext steps through personal, then every visible family.
func (m *Model) cycleFamilyContext() {
	families := m.visibleFamilies()
	if len(families) == 0 {
		m.setFamilyContext(nil)
		return
	}

	next := 0
	if m.family != nil {
		next = len(families)
		for i, f := range families {
			if f.ID == m.family.ID {
				next = i + 1
				break
			}
		}
	}
	if next >= len(families) {
		m.setFamilyContext(nil)
		m.setStatus("New tasks are personal", false)
		return
	}
	f := families[next]
	m.setFamilyContext(&f)
	m.setStatus("New tasks go to "+f.Name, false)
}

func (m *Model) handleOpDone(msg ui.OpDoneMsg) tea.Cmd {
	if msg.Err != nil {
		m.deps.Log.Warn("operation failed", zap.String("op", msg.Op), zap.Error(msg.Err))
		m.setStatus(msg.Op+" failed: "+msg.Err.Error(), true)
		return nil
	}
	if msg.Op != opRefresh {
		m.setStatus(msg.Op+" ✓", false)
	}
	cmd := m.refreshViews()

	if msg.Op == familymgr.OpDelete {
		return tea.Batch(cmd, m.refresh())
	}
	return cmd
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) login(email, displayName string) tea.Cmd {
	p := m.deps.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := p.Login(ctx, email, displayName)
		return loginResultMsg{err: err}
	}
}

func (m Model) logout() tea.Cmd {
	p := m.deps.Session
	return ui.Run("sign out", p.Logout)
}

func (m Model) quit() tea.Cmd {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return tea.Quit
}

func (m *Model) resize(width, height int) {
	m.layout = ui.NewLayout(width, height)
	m.ready = true
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.tasks.SetSize(w, h)
	m.calendar.SetSize(w, h)
	m.families.SetSize(w, h)
	m.settings.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.signin.SetSize(width, height)
}
