package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/sharedspace/internal/model"
)

type familyRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	OwnerID     string    `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const familyColumns = "id, name, description, owner_id, created_at, updated_at"

func (r familyRow) toModel() model.Family {
	return model.Family{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ListFamilies retrieves families matching q.
func (s *SQLiteStore) ListFamilies(ctx context.Context, q Query) ([]model.Family, error) {
	query, args, err := buildSelect(familyColumns, CollectionFamilies, q)
	if err != nil {
		return nil, err
	}

	var rows []familyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying families: %w", err)
	}

	families := make([]model.Family, 0, len(rows))
	for _, row := range rows {
		families = append(families, row.toModel())
	}
	return families, nil
}

// CreateFamily inserts a new family.
func (s *SQLiteStore) CreateFamily(ctx context.Context, f model.Family) (model.Family, error) {
	if strings.TrimSpace(f.Name) == "" {
		return model.Family{}, fmt.Errorf("%w: family name must not be empty", model.ErrValidation)
	}
	if f.OwnerID == "" {
		return model.Family{}, fmt.Errorf("%w: family must have an owner", model.ErrValidation)
	}
	if f.ID == "" {
		f.ID = NewID(PrefixFamily)
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO families (id, name, description, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Description, f.OwnerID, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return model.Family{}, fmt.Errorf("creating family: %w", translateErr(err))
	}
	return f, nil
}

// UpdateFamily applies a partial update to a family.
func (s *SQLiteStore) UpdateFamily(ctx context.Context, id string, patch model.FamilyPatch) error {
	var sets []string
	var args []any

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return fmt.Errorf("%w: family name must not be empty", model.ErrValidation)
		}
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE families SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating family %s: %w", id, err)
	}
	return expectRow(result, "family", id)
}

// DeleteFamily removes a family. Member rows cascade; tasks get
// family_id set to NULL.
func (s *SQLiteStore) DeleteFamily(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM families WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting family %s: %w", id, err)
	}
	return expectRow(result, "family", id)
}
