// Package familyview partitions families into owned and joined, counts
// their members, and manages invitation rows.
package familyview

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/sync"
)

// ViewModel keeps the signed-in user's families and their member rows.
// Methods are safe for concurrent use.
type ViewModel struct {
	store store.Store
	log   *zap.Logger

	mu      gosync.Mutex
	user    *model.User
	mine    []model.Family
	joined  []model.Family
	members []model.FamilyMember
}

// New creates an empty view-model.
func New(s store.Store, log *zap.Logger) *ViewModel {
	return &ViewModel{store: s, log: log}
}

// Load fetches u's families and member rows.
func (vm *ViewModel) Load(ctx context.Context, u model.User) error {
	snap, err := sync.Fetch(ctx, vm.store, u)
	if err != nil {
		vm.log.Error("loading families failed", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("loading families: %w", err)
	}
	vm.SetSnapshot(u, snap)
	return nil
}

// SetSnapshot replaces the local state. An empty snapshot signs out.
func (vm *ViewModel) SetSnapshot(u model.User, snap sync.Snapshot) {
	snap = snap.Clone()

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if snap.Empty() {
		vm.user, vm.mine, vm.joined, vm.members = nil, nil, nil, nil
		return
	}
	vm.user = &u
	families := append(slices.Clone(snap.OwnedFamilies), snap.MemberFamilies...)
	vm.mine, vm.joined = Partition(u.ID, u.Email, families, snap.Members)
	vm.members = snap.Members
}

func (vm *ViewModel) currentUser() (model.User, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.user == nil {
		return model.User{}, model.ErrUnauthenticated
	}
	return *vm.user, nil
}

// MyFamilies returns the families the user owns, newest first.
func (vm *ViewModel) MyFamilies() []model.Family {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return slices.Clone(vm.mine)
}

// MemberFamilies returns the families the user joined but does not own.
func (vm *ViewModel) MemberFamilies() []model.Family {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return slices.Clone(vm.joined)
}

// Family returns a visible family by id.
func (vm *ViewModel) Family(id string) (model.Family, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.familyLocked(id)
}

func (vm *ViewModel) familyLocked(id string) (model.Family, bool) {
	for _, f := range vm.mine {
		if f.ID == id {
			return f, true
		}
	}
	for _, f := range vm.joined {
		if f.ID == id {
			return f, true
		}
	}
	return model.Family{}, false
}

// IsOwner reports whether the user owns familyID.
func (vm *ViewModel) IsOwner(familyID string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return slices.ContainsFunc(vm.mine, func(f model.Family) bool { return f.ID == familyID })
}

// Members returns every row of a family, active first.
func (vm *ViewModel) Members(familyID string) []model.FamilyMember {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	var out []model.FamilyMember
	for _, m := range vm.members {
		if m.FamilyID == familyID {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b model.FamilyMember) int {
		switch {
		case a.IsActive() == b.IsActive():
			return 0
		case a.IsActive():
			return -1
		default:
			return 1
		}
	})
	return out
}

// Invitations returns the pending invitations of a family.
func (vm *ViewModel) Invitations(familyID string) []model.FamilyInvitation {
	var out []model.FamilyInvitation
	for _, m := range vm.Members(familyID) {
		if inv, ok := m.Invitation(); ok {
			out = append(out, inv)
		}
	}
	return out
}

// MyRole returns the user's role in a family.
func (vm *ViewModel) MyRole(familyID string) (model.MemberRole, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.user == nil {
		return "", false
	}
	email := model.NormalizeEmail(vm.user.Email)
	for _, m := range vm.members {
		if m.FamilyID == familyID && m.IsActive() && model.NormalizeEmail(m.Email) == email {
			return m.Role, true
		}
	}
	return "", false
}

// Summary aggregates a family's member rows.
func (vm *ViewModel) Summary(familyID string) Summary {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return Summarize(familyID, vm.members)
}

// Totals counts families and member rows across both lists.
func (vm *ViewModel) Totals() Totals {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	t := Totals{Owned: len(vm.mine), Joined: len(vm.joined)}
	for _, m := range vm.members {
		switch {
		case m.IsActive():
			t.ActiveMembers++
		case m.IsInvited():
			t.PendingInvites++
		}
	}
	return t
}

// CreateFamily stores a family owned by the user and an active admin row
// for the user. If the admin row cannot be written the family is removed
// again.
func (vm *ViewModel) CreateFamily(ctx context.Context, name, description string) (model.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Family{}, fmt.Errorf("%w: family name is required", model.ErrValidation)
	}
	u, err := vm.currentUser()
	if err != nil {
		return model.Family{}, err
	}

	fam, err := vm.store.CreateFamily(ctx, model.Family{
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     u.ID,
	})
	if err != nil {
		vm.log.Error("creating family failed", zap.String("user_id", u.ID), zap.Error(err))
		return model.Family{}, fmt.Errorf("creating family: %w", err)
	}

	joinedAt := time.Now().UTC()
	admin, err := vm.store.CreateMember(ctx, model.FamilyMember{
		FamilyID: fam.ID,
		UserID:   u.ID,
		Email:    u.Email,
		Role:     model.RoleAdmin,
		Status:   model.MemberStatusActive,
		JoinedAt: &joinedAt,
	})
	if err != nil {
		vm.log.Error("adding family creator failed", zap.String("family_id", fam.ID), zap.Error(err))
		if delErr := vm.store.DeleteFamily(ctx, fam.ID); delErr != nil {
			vm.log.Error("removing half-created family failed", zap.String("family_id", fam.ID), zap.Error(delErr))
		}
		return model.Family{}, fmt.Errorf("creating family: %w", err)
	}

	vm.mu.Lock()
	vm.mine = append([]model.Family{fam}, vm.mine...)
	vm.members = append(vm.members, admin)
	vm.mu.Unlock()

	return fam, nil
}

// UpdateFamily renames an owned family and replaces its description.
func (vm *ViewModel) UpdateFamily(ctx context.Context, id, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: family name is required", model.ErrValidation)
	}
	if !vm.IsOwner(id) {
		return fmt.Errorf("family %s: %w", id, model.ErrNotFound)
	}
	description = strings.TrimSpace(description)

	err := vm.store.UpdateFamily(ctx, id, model.FamilyPatch{Name: &name, Description: &description})
	if err != nil {
		vm.log.Error("updating family failed", zap.String("family_id", id), zap.Error(err))
		return fmt.Errorf("updating family: %w", err)
	}

	now := time.Now().UTC()
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.mine {
		if vm.mine[i].ID == id {
			vm.mine[i].Name = name
			vm.mine[i].Description = description
			vm.mine[i].UpdatedAt = now
		}
	}
	return nil
}

// DeleteFamily removes an owned family with its member rows.
func (vm *ViewModel) DeleteFamily(ctx context.Context, id string) error {
	if !vm.IsOwner(id) {
		return fmt.Errorf("family %s: %w", id, model.ErrNotFound)
	}
	if err := vm.store.DeleteFamily(ctx, id); err != nil {
		vm.log.Error("deleting family failed", zap.String("family_id", id), zap.Error(err))
		return fmt.Errorf("deleting family: %w", err)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.mine = slices.DeleteFunc(vm.mine, func(f model.Family) bool { return f.ID == id })
	vm.members = slices.DeleteFunc(vm.members, func(m model.FamilyMember) bool { return m.FamilyID == id })
	return nil
}

// Invite writes an invited row for email with role member or moderator.
// Nothing is sent; the row is accepted when that email signs in.
func (vm *ViewModel) Invite(ctx context.Context, familyID, email string, role model.MemberRole) (model.FamilyMember, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return model.FamilyMember{}, fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.FamilyMember{}, fmt.Errorf("%w: %q is not an email address", model.ErrValidation, email)
	}
	if role == "" {
		role = model.RoleMember
	}
	if !role.Invitable() {
		return model.FamilyMember{}, fmt.Errorf("%w: cannot invite with role %q", model.ErrValidation, role)
	}

	vm.mu.Lock()
	_, visible := vm.familyLocked(familyID)
	exists := slices.ContainsFunc(vm.members, func(m model.FamilyMember) bool {
		return m.FamilyID == familyID && model.NormalizeEmail(m.Email) == email
	})
	vm.mu.Unlock()

	if !visible {
		return model.FamilyMember{}, fmt.Errorf("family %s: %w", familyID, model.ErrNotFound)
	}
	if exists {
		return model.FamilyMember{}, fmt.Errorf("%w: %s is already in this family", model.ErrDuplicate, email)
	}

	invitedAt := time.Now().UTC()
	row, err := vm.store.CreateMember(ctx, model.FamilyMember{
		FamilyID:  familyID,
		Email:     email,
		Role:      role,
		Status:    model.MemberStatusInvited,
		InvitedAt: &invitedAt,
	})
	if err != nil {
		vm.log.Error("inviting member failed",
			zap.String("family_id", familyID), zap.String("email", email), zap.Error(err))
		return model.FamilyMember{}, fmt.Errorf("inviting %s: %w", email, err)
	}

	vm.mu.Lock()
	vm.members = append(vm.members, row)
	vm.mu.Unlock()

	return row, nil
}

func (vm *ViewModel) member(id string) (model.FamilyMember, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for _, m := range vm.members {
		if m.ID == id {
			return m, true
		}
	}
	return model.FamilyMember{}, false
}

// RevokeInvitation deletes a pending invitation row.
func (vm *ViewModel) RevokeInvitation(ctx context.Context, memberID string) error {
	m, ok := vm.member(memberID)
	if !ok || !m.IsInvited() {
		return fmt.Errorf("invitation %s: %w", memberID, model.ErrNotFound)
	}
	return vm.deleteMember(ctx, memberID)
}

// RemoveMember deletes a member row other than the family owner's.
func (vm *ViewModel) RemoveMember(ctx context.Context, memberID string) error {
	m, ok := vm.member(memberID)
	if !ok {
		return fmt.Errorf("family member %s: %w", memberID, model.ErrNotFound)
	}
	if vm.isOwnerRow(m) {
		return fmt.Errorf("%w: the owner cannot be removed from their family", model.ErrValidation)
	}
	return vm.deleteMember(ctx, memberID)
}

// isOwnerRow reports whether m is the membership of the family's owner.
// That row must stay owner or admin.
func (vm *ViewModel) isOwnerRow(m model.FamilyMember) bool {
	if m.UserID == "" {
		return false
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	f, ok := vm.familyLocked(m.FamilyID)
	return ok && f.OwnerID == m.UserID
}

func (vm *ViewModel) deleteMember(ctx context.Context, memberID string) error {
	if err := vm.store.DeleteMember(ctx, memberID); err != nil {
		vm.log.Error("deleting family member failed", zap.String("member_id", memberID), zap.Error(err))
		return fmt.Errorf("deleting family member: %w", err)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.members = slices.DeleteFunc(vm.members, func(m model.FamilyMember) bool { return m.ID == memberID })
	return nil
}

// UpdateMemberRole relabels a member row. The owner role cannot be
// handed out this way, and the owner's own row keeps its role.
func (vm *ViewModel) UpdateMemberRole(ctx context.Context, memberID string, role model.MemberRole) error {
	if !role.Valid() || role == model.RoleOwner {
		return fmt.Errorf("%w: cannot assign role %q", model.ErrValidation, role)
	}
	m, ok := vm.member(memberID)
	if !ok {
		return fmt.Errorf("family member %s: %w", memberID, model.ErrNotFound)
	}
	if vm.isOwnerRow(m) {
		return fmt.Errorf("%w: the owner's role cannot be changed", model.ErrValidation)
	}

	if err := vm.store.UpdateMember(ctx, memberID, model.MemberPatch{Role: &role}); err != nil {
		vm.log.Error("updating member role failed", zap.String("member_id", memberID), zap.Error(err))
		return fmt.Errorf("updating member role: %w", err)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.members {
		if vm.members[i].ID == memberID {
			vm.members[i].Role = role
		}
	}
	return nil
}
