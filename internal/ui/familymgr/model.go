package familymgr

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sharedspace/internal/familyview"
	"github.com/nhle/sharedspace/internal/keys"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/internal/ui"
)

// Operation names reported in ui.OpDoneMsg.
const (
	OpCreate = "create family"
	OpUpdate = "update family"
	OpDelete = "delete family"
	OpInvite = "invite member"
	OpRevoke = "remove member"
	OpRole   = "change role"
)

// ContextMsg asks the root shell to scope new tasks to a family.
type ContextMsg struct {
	Family model.Family
}

type familyMode int

const (
	modeList familyMode = iota
	modeForm
	modeInvite
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	email       string
	role        model.MemberRole
	confirm     bool
}

// entry is one row of the combined family list.
type entry struct {
	family model.Family
	owned  bool
}

// Model is the Families tab.
type Model struct {
	mode        familyMode
	vm          *familyview.ViewModel
	keys        *keys.KeyMap
	theme       *theme.Context
	entries     []entry
	selectedIdx int
	memberIdx   int
	editingID   string
	form        *huh.Form
	fb          *formBindings
	width       int
	height      int
}

// New creates the Families tab over vm.
func New(vm *familyview.ViewModel, k *keys.KeyMap, th *theme.Context, width, height int) Model {
	return Model{
		mode:  modeList,
		vm:    vm,
		keys:  k,
		theme: th,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Capturing reports whether a form is open.
func (m Model) Capturing() bool { return m.mode != modeList }

// Refresh rebuilds the family list from the view-model.
func (m *Model) Refresh() tea.Cmd {
	var entries []entry
	for _, f := range m.vm.MyFamilies() {
		entries = append(entries, entry{family: f, owned: true})
	}
	for _, f := range m.vm.MemberFamilies() {
		entries = append(entries, entry{family: f})
	}
	m.entries = entries
	m.selectedIdx = min(m.selectedIdx, max(len(m.entries)-1, 0))
	if cur, ok := m.current(); ok {
		m.memberIdx = min(m.memberIdx, max(len(m.vm.Members(cur.family.ID))-1, 0))
	}
	return nil
}

func (m Model) current() (entry, bool) {
	if m.selectedIdx >= len(m.entries) {
		return entry{}, false
	}
	return m.entries[m.selectedIdx], true
}

func (m Model) currentMember() (model.FamilyMember, bool) {
	cur, ok := m.current()
	if !ok {
		return model.FamilyMember{}, false
	}
	members := m.vm.Members(cur.family.ID)
	if m.memberIdx >= len(members) {
		return model.FamilyMember{}, false
	}
	return members[m.memberIdx], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.mode == modeList {
		return m.handleListKey(msg)
	}
	if m.mode != modeList {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
			m.memberIdx = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
			m.memberIdx = 0
		}
		return m, nil

	case msg.String() == "J":
		if cur, ok := m.current(); ok {
			m.memberIdx = min(m.memberIdx+1, max(len(m.vm.Members(cur.family.ID))-1, 0))
		}
		return m, nil

	case msg.String() == "K":
		m.memberIdx = max(m.memberIdx-1, 0)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if cur, ok := m.current(); ok {
			return m, ui.Emit(ContextMsg{Family: cur.family})
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.editingID = ""
		m.fb.name = ""
		m.fb.description = ""
		m.form = m.buildFamilyForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		cur, ok := m.current()
		if !ok || !cur.owned {
			return m, nil
		}
		m.editingID = cur.family.ID
		m.fb.name = cur.family.Name
		m.fb.description = cur.family.Description
		m.form = m.buildFamilyForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		cur, ok := m.current()
		if !ok || !cur.owned {
			return m, nil
		}
		m.fb.confirm = false
		m.form = m.buildConfirmForm(cur.family.Name)
		m.mode = modeConfirmDelete
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Invite):
		if _, ok := m.current(); !ok {
			return m, nil
		}
		m.fb.email = ""
		m.fb.role = model.RoleMember
		m.form = m.buildInviteForm()
		m.mode = modeInvite
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Revoke):
		member, ok := m.currentMember()
		if !ok {
			return m, nil
		}
		vm := m.vm
		return m, ui.Run(OpRevoke, func(ctx context.Context) error {
			if member.IsInvited() {
				return vm.RevokeInvitation(ctx, member.ID)
			}
			return vm.RemoveMember(ctx, member.ID)
		})

	case key.Matches(msg, m.keys.Role):
		member, ok := m.currentMember()
		if !ok {
			return m, nil
		}
		role := NextRole(member.Role)
		vm := m.vm
		return m, ui.Run(OpRole, func(ctx context.Context) error {
			return vm.UpdateMemberRole(ctx, member.ID, role)
		})
	}
	return m, nil
}

// NextRole cycles member → moderator → admin → member. Owner rows keep
// their role.
func NextRole(r model.MemberRole) model.MemberRole {
	switch r {
	case model.RoleMember:
		return model.RoleModerator
	case model.RoleModerator:
		return model.RoleAdmin
	case model.RoleOwner:
		return model.RoleOwner
	default:
		return model.RoleMember
	}
}

func (m Model) buildFamilyForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Family name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("Optional description").
				Value(&m.fb.description),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildInviteForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("name@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewSelect[model.MemberRole]().
				Title("Role").
				Options(
					huh.NewOption("Member", model.RoleMember),
					huh.NewOption("Moderator", model.RoleModerator),
				).
				Value(&m.fb.role),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildConfirmForm(name string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete family %q?", name)).
				Description("Members and invitations are removed. Tasks become personal.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
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

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		mode := m.mode
		m.mode = modeList
		m.form = nil
		return m, m.submit(mode)
	case huh.StateAborted:
		m.mode = modeList
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) submit(mode familyMode) tea.Cmd {
	vm := m.vm
	fb := *m.fb
	cur, _ := m.current()

	switch mode {
	case modeForm:
		if m.editingID == "" {
			return ui.Run(OpCreate, func(ctx context.Context) error {
				_, err := vm.CreateFamily(ctx, fb.name, fb.description)
				return err
			})
		}
		id := m.editingID
		return ui.Run(OpUpdate, func(ctx context.Context) error {
			return vm.UpdateFamily(ctx, id, fb.name, fb.description)
		})

	case modeInvite:
		return ui.Run(OpInvite, func(ctx context.Context) error {
			_, err := vm.Invite(ctx, cur.family.ID, fb.email, fb.role)
			return err
		})

	case modeConfirmDelete:
		if !fb.confirm {
			return nil
		}
		return ui.Run(OpDelete, func(ctx context.Context) error {
			return vm.DeleteFamily(ctx, cur.family.ID)
		})
	}
	return nil
}

// View renders the Families tab.
func (m Model) View() string {
	if m.mode != modeList && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	listWidth := min(max(m.width/3, 24), 40)
	left := lipgloss.NewStyle().Width(listWidth).Render(m.viewList())
	right := lipgloss.NewStyle().Width(max(m.width-listWidth-4, 20)).Render(m.viewFamily())

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	)
}

func (m Model) viewList() string {
	var b strings.Builder
	styles := m.theme.Styles()

	t := m.vm.Totals()
	b.WriteString(styles.Accent.Render("Families"))
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(fmt.Sprintf("%d owned · %d joined · %d members · %d pending",
		t.Owned, t.Joined, t.ActiveMembers, t.PendingInvites)))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(theme.HelpStyle.Render("No families yet. Press 'n' to create one."))
		return b.String()
	}

	heading := ""
	for i, e := range m.entries {
		h := "My families"
		if !e.owned {
			h = "Member of"
		}
		if h != heading {
			if heading != "" {
				b.WriteString("\n")
			}
			heading = h
			b.WriteString(lipgloss.NewStyle().Bold(true).Render(h))
			b.WriteString("\n")
		}

		s := m.vm.Summary(e.family.ID)
		label := fmt.Sprintf("%s  %s", e.family.Name, theme.HelpStyle.Render(fmt.Sprintf("%d", s.ActiveCount)))
		if i == m.selectedIdx {
			b.WriteString(styles.Selected.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFamily() string {
	cur, ok := m.current()
	if !ok {
		return ""
	}
	styles := m.theme.Styles()
	f := cur.family

	lines := []string{styles.Accent.Render(f.Name)}
	if f.Description != "" {
		lines = append(lines, f.Description)
	}
	if role, ok := m.vm.MyRole(f.ID); ok {
		lines = append(lines, theme.HelpStyle.Render("your role: ")+theme.RoleStyle(string(role)).Render(string(role)))
	}

	s := m.vm.Summary(f.ID)
	avatars := strings.Join(s.Avatars, " ")
	if s.Overflow > 0 {
		avatars += fmt.Sprintf(" +%d", s.Overflow)
	}
	lines = append(lines,
		theme.HelpStyle.Render(fmt.Sprintf("%d active · %d pending  ", s.ActiveCount, s.PendingCount))+avatars,
		"",
		lipgloss.NewStyle().Bold(true).Render("Members"),
	)

	for i, mem := range m.vm.Members(f.ID) {
		status := ""
		if mem.IsInvited() {
			status = theme.HelpStyle.Render(" invited")
			if mem.InvitedAt != nil {
				status += theme.HelpStyle.Render(" " + mem.InvitedAt.Local().Format("Jan 02"))
			}
		}
		line := fmt.Sprintf("%-3s %s %s%s", mem.Initials(), mem.Email,
			theme.RoleStyle(string(mem.Role)).Render(string(mem.Role)), status)
		if i == m.memberIdx {
			lines = append(lines, styles.Selected.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Hints returns the key hints for the status bar.
func (m Model) Hints() string {
	if m.mode != modeList {
		return "enter submit | esc cancel"
	}
	return "n new | e edit | d delete | enter use as context | i invite | J/K member | o role | u revoke/remove"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
