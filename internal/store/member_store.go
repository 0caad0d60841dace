package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nhle/sharedspace/internal/model"
)

type memberRow struct {
	ID        string       `db:"id"`
	FamilyID  string       `db:"family_id"`
	UserID    string       `db:"user_id"`
	Email     string       `db:"email"`
	Role      string       `db:"role"`
	Status    string       `db:"status"`
	InvitedAt sql.NullTime `db:"invited_at"`
	JoinedAt  sql.NullTime `db:"joined_at"`
}

const memberColumns = "id, family_id, user_id, email, role, status, invited_at, joined_at"

func (r memberRow) toModel() model.FamilyMember {
	return model.FamilyMember{
		ID:        r.ID,
		FamilyID:  r.FamilyID,
		UserID:    r.UserID,
		Email:     r.Email,
		Role:      model.MemberRole(r.Role),
		Status:    model.MemberStatus(r.Status),
		InvitedAt: timePtr(r.InvitedAt),
		JoinedAt:  timePtr(r.JoinedAt),
	}
}

// ListMembers retrieves member rows matching q.
func (s *SQLiteStore) ListMembers(ctx context.Context, q Query) ([]model.FamilyMember, error) {
	query, args, err := buildSelect(memberColumns, CollectionMembers, q)
	if err != nil {
		return nil, err
	}

	var rows []memberRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying family members: %w", err)
	}

	members := make([]model.FamilyMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.toModel())
	}
	return members, nil
}

// CreateMember inserts a member row. (family_id, email) must be unique.
func (s *SQLiteStore) CreateMember(ctx context.Context, m model.FamilyMember) (model.FamilyMember, error) {
	m.Email = model.NormalizeEmail(m.Email)
	if m.Email == "" {
		return model.FamilyMember{}, fmt.Errorf("%w: member email must not be empty", model.ErrValidation)
	}
	if strings.TrimSpace(m.FamilyID) == "" {
		return model.FamilyMember{}, fmt.Errorf("%w: member must belong to a family", model.ErrValidation)
	}
	if !m.Role.Valid() {
		m.Role = model.RoleMember
	}
	if m.Status == "" {
		m.Status = model.MemberStatusInvited
	}
	if m.ID == "" {
		m.ID = NewID(PrefixMember)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO family_members (
			id, family_id, user_id, email, role, status, invited_at, joined_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FamilyID, m.UserID, m.Email, string(m.Role), string(m.Status),
		nullTime(m.InvitedAt), nullTime(m.JoinedAt),
	)
	if err != nil {
		return model.FamilyMember{}, fmt.Errorf("creating family member %s: %w", m.Email, translateErr(err))
	}
	return m, nil
}

// UpdateMember applies a partial update to a member row.
func (s *SQLiteStore) UpdateMember(ctx context.Context, id string, patch model.MemberPatch) error {
	var sets []string
	var args []any

	if patch.UserID != nil {
		sets = append(sets, "user_id = ?")
		args = append(args, *patch.UserID)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*patch.Role))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.JoinedAt != nil {
		sets = append(sets, "joined_at = ?")
		args = append(args, patch.JoinedAt.UTC())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE family_members SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating family member %s: %w", id, translateErr(err))
	}
	return expectRow(result, "family member", id)
}

// DeleteMember removes a member row by ID.
func (s *SQLiteStore) DeleteMember(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM family_members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting family member %s: %w", id, err)
	}
	return expectRow(result, "family member", id)
}
