package familyview_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/familyview"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/tests/testutil"
)

type failingMemberStore struct {
	store.Store
}

func (failingMemberStore) CreateMember(context.Context, model.FamilyMember) (model.FamilyMember, error) {
	return model.FamilyMember{}, errors.New("write refused")
}

func setup(t *testing.T) (*familyview.ViewModel, store.Store, model.User) {
	t.Helper()
	s := testutil.NewTestStore(t)
	u := testutil.SeedUser(t, s, "owner@example.com", "Owner")
	vm := familyview.New(s, zap.NewNop())
	require.NoError(t, vm.Load(context.Background(), u))
	return vm, s, u
}

func TestCreateFamilyAddsAdminRow(t *testing.T) {
	vm, s, u := setup(t)
	ctx := context.Background()

	fam, err := vm.CreateFamily(ctx, "  The Smiths ", " weekend chores ")
	require.NoError(t, err)
	assert.Equal(t, "The Smiths", fam.Name)
	assert.Equal(t, "weekend chores", fam.Description)
	assert.Equal(t, u.ID, fam.OwnerID)

	rows, err := s.ListMembers(ctx, store.Where("family_id", fam.ID))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RoleAdmin, rows[0].Role)
	assert.Equal(t, model.MemberStatusActive, rows[0].Status)
	assert.Equal(t, u.ID, rows[0].UserID)
	assert.NotNil(t, rows[0].JoinedAt)

	require.Len(t, vm.MyFamilies(), 1)
	assert.Empty(t, vm.MemberFamilies())
	assert.Equal(t, 1, vm.Summary(fam.ID).ActiveCount)

	role, ok := vm.MyRole(fam.ID)
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, role)
}

func TestCreateFamilyValidation(t *testing.T) {
	vm, _, _ := setup(t)

	_, err := vm.CreateFamily(context.Background(), "   ", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	signedOut := familyview.New(testutil.NewTestStore(t), zap.NewNop())
	_, err = signedOut.CreateFamily(context.Background(), "Home", "")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestCreateFamilyRollsBackWithoutAdminRow(t *testing.T) {
	base := testutil.NewTestStore(t)
	u := testutil.SeedUser(t, base, "owner@example.com", "")
	vm := familyview.New(failingMemberStore{Store: base}, zap.NewNop())
	require.NoError(t, vm.Load(context.Background(), u))

	_, err := vm.CreateFamily(context.Background(), "Home", "")
	require.Error(t, err)
	assert.Empty(t, vm.MyFamilies())

	families, err := base.ListFamilies(context.Background(), store.Where("owner_id", u.ID))
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestInvite(t *testing.T) {
	vm, s, _ := setup(t)
	ctx := context.Background()
	fam, err := vm.CreateFamily(ctx, "Home", "")
	require.NoError(t, err)

	row, err := vm.Invite(ctx, fam.ID, " Kid@Example.com ", model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, "kid@example.com", row.Email)
	assert.Equal(t, model.MemberStatusInvited, row.Status)
	assert.Equal(t, model.RoleModerator, row.Role)
	assert.NotNil(t, row.InvitedAt)
	assert.Empty(t, row.UserID)

	defaulted, err := vm.Invite(ctx, fam.ID, "gran@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, defaulted.Role)

	summary := vm.Summary(fam.ID)
	assert.Equal(t, 1, summary.ActiveCount)
	assert.Equal(t, 2, summary.PendingCount)

	invitations := vm.Invitations(fam.ID)
	require.Len(t, invitations, 2)

	_, err = vm.Invite(ctx, fam.ID, "kid@example.com", model.RoleMember)
	assert.ErrorIs(t, err, model.ErrDuplicate)

	_, err = vm.Invite(ctx, fam.ID, "", model.RoleMember)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = vm.Invite(ctx, fam.ID, "nope", model.RoleMember)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = vm.Invite(ctx, fam.ID, "boss@example.com", model.RoleAdmin)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = vm.Invite(ctx, "family_missing", "x@example.com", model.RoleMember)
	assert.ErrorIs(t, err, model.ErrNotFound)

	rows, err := s.ListMembers(ctx, store.Where("family_id", fam.ID, "status", model.MemberStatusInvited))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRevokeAndRoles(t *testing.T) {
	vm, _, _ := setup(t)
	ctx := context.Background()
	fam, err := vm.CreateFamily(ctx, "Home", "")
	require.NoError(t, err)
	row, err := vm.Invite(ctx, fam.ID, "kid@example.com", model.RoleMember)
	require.NoError(t, err)

	require.NoError(t, vm.UpdateMemberRole(ctx, row.ID, model.RoleModerator))
	assert.Equal(t, model.RoleModerator, vm.Invitations(fam.ID)[0].Role)
	assert.ErrorIs(t, vm.UpdateMemberRole(ctx, row.ID, model.RoleOwner), model.ErrValidation)
	assert.ErrorIs(t, vm.UpdateMemberRole(ctx, "member_missing", model.RoleMember), model.ErrNotFound)

	require.NoError(t, vm.RevokeInvitation(ctx, row.ID))
	assert.Empty(t, vm.Invitations(fam.ID))
	assert.ErrorIs(t, vm.RevokeInvitation(ctx, row.ID), model.ErrNotFound)

	// The admin row is active, so it is not an invitation.
	admin := vm.Members(fam.ID)[0]
	assert.ErrorIs(t, vm.RevokeInvitation(ctx, admin.ID), model.ErrNotFound)
	assert.ErrorIs(t, vm.RemoveMember(ctx, admin.ID), model.ErrValidation)
}

func TestOwnerRowIsProtected(t *testing.T) {
	vm, s, owner := setup(t)
	ctx := context.Background()
	fam, err := vm.CreateFamily(ctx, "Home", "")
	require.NoError(t, err)
	_, err = vm.Invite(ctx, fam.ID, "kid@example.com", model.RoleMember)
	require.NoError(t, err)

	kid := testutil.SeedUser(t, s, "kid@example.com", "Kid")
	_, err = familyview.AcceptPendingInvitations(ctx, s, kid)
	require.NoError(t, err)
	kidView := familyview.New(s, zap.NewNop())
	require.NoError(t, kidView.Load(ctx, kid))
	require.NoError(t, vm.Load(ctx, owner))

	var ownerRow model.FamilyMember
	for _, m := range kidView.Members(fam.ID) {
		if m.UserID == fam.OwnerID {
			ownerRow = m
		}
	}
	require.NotEmpty(t, ownerRow.ID)

	// Neither the owner nor another member can demote or drop the owner row.
	assert.ErrorIs(t, vm.UpdateMemberRole(ctx, ownerRow.ID, model.RoleMember), model.ErrValidation)
	assert.ErrorIs(t, kidView.UpdateMemberRole(ctx, ownerRow.ID, model.RoleModerator), model.ErrValidation)
	assert.ErrorIs(t, kidView.RemoveMember(ctx, ownerRow.ID), model.ErrValidation)

	rows, err := s.ListMembers(ctx, store.Where("family_id", fam.ID, "user_id", fam.OwnerID))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RoleAdmin, rows[0].Role)

	// Other rows can still be relabeled.
	kidRow := rows[0]
	for _, m := range vm.Members(fam.ID) {
		if m.UserID == kid.ID {
			kidRow = m
		}
	}
	require.Equal(t, kid.ID, kidRow.UserID)
	require.NoError(t, vm.UpdateMemberRole(ctx, kidRow.ID, model.RoleModerator))
}

func TestAcceptanceMakesFamilyVisibleToInvitee(t *testing.T) {
	vm, s, _ := setup(t)
	ctx := context.Background()
	fam, err := vm.CreateFamily(ctx, "Home", "")
	require.NoError(t, err)
	_, err = vm.Invite(ctx, fam.ID, "kid@example.com", model.RoleMember)
	require.NoError(t, err)

	kid := testutil.SeedUser(t, s, "KID@example.com", "Kid")
	kidView := familyview.New(s, zap.NewNop())

	// Invited rows alone do not make a family visible.
	require.NoError(t, kidView.Load(ctx, kid))
	assert.Empty(t, kidView.MemberFamilies())

	n, err := familyview.AcceptPendingInvitations(ctx, s, kid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, kidView.Load(ctx, kid))
	require.Len(t, kidView.MemberFamilies(), 1)
	assert.Equal(t, fam.ID, kidView.MemberFamilies()[0].ID)
	assert.Empty(t, kidView.MyFamilies())
	assert.False(t, kidView.IsOwner(fam.ID))

	rows, err := s.ListMembers(ctx, store.Where("email", "kid@example.com"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, kid.ID, rows[0].UserID)
	assert.NotNil(t, rows[0].JoinedAt)

	n, err = familyview.AcceptPendingInvitations(ctx, s, kid)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateAndDeleteFamily(t *testing.T) {
	vm, s, u := setup(t)
	ctx := context.Background()
	fam, err := vm.CreateFamily(ctx, "Home", "")
	require.NoError(t, err)
	_, err = vm.Invite(ctx, fam.ID, "kid@example.com", model.RoleMember)
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, model.Task{Title: "Dishes", UserID: u.ID, FamilyID: &fam.ID})
	require.NoError(t, err)

	require.NoError(t, vm.UpdateFamily(ctx, fam.ID, "Cabin", "lake"))
	got, ok := vm.Family(fam.ID)
	require.True(t, ok)
	assert.Equal(t, "Cabin", got.Name)
	assert.ErrorIs(t, vm.UpdateFamily(ctx, fam.ID, "", ""), model.ErrValidation)

	require.NoError(t, vm.DeleteFamily(ctx, fam.ID))
	assert.Empty(t, vm.MyFamilies())
	assert.Equal(t, familyview.Totals{}, vm.Totals())

	rows, err := s.ListMembers(ctx, store.Where("family_id", fam.ID))
	require.NoError(t, err)
	assert.Empty(t, rows)

	tasks, err := s.ListTasks(ctx, store.Where("id", task.ID))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].FamilyID)

	assert.ErrorIs(t, vm.DeleteFamily(ctx, fam.ID), model.ErrNotFound)
}

func TestTotals(t *testing.T) {
	vm, _, _ := setup(t)
	ctx := context.Background()
	a, err := vm.CreateFamily(ctx, "A", "")
	require.NoError(t, err)
	_, err = vm.CreateFamily(ctx, "B", "")
	require.NoError(t, err)
	_, err = vm.Invite(ctx, a.ID, "x@example.com", model.RoleMember)
	require.NoError(t, err)

	assert.Equal(t, familyview.Totals{Owned: 2, ActiveMembers: 2, PendingInvites: 1}, vm.Totals())
	assert.Equal(t, "B", vm.MyFamilies()[0].Name)
}
