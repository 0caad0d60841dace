package familyview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
)

// AcceptPendingInvitations turns every invited row addressed to u's
// email into an active membership for u. It returns how many rows were
// accepted; rows that fail are reported together in the error.
func AcceptPendingInvitations(ctx context.Context, s store.Store, u model.User) (int, error) {
	pending, err := s.ListMembers(ctx, store.Where(
		"email", model.NormalizeEmail(u.Email),
		"status", model.MemberStatusInvited,
	))
	if err != nil {
		return 0, fmt.Errorf("listing invitations for %s: %w", u.Email, err)
	}

	active := model.MemberStatusActive
	joinedAt := time.Now().UTC()

	var accepted int
	var errs []error
	for _, m := range pending {
		err := s.UpdateMember(ctx, m.ID, model.MemberPatch{
			UserID:   &u.ID,
			Status:   &active,
			JoinedAt: &joinedAt,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("accepting invitation %s: %w", m.ID, err))
			continue
		}
		accepted++
	}
	return accepted, errors.Join(errs...)
}
