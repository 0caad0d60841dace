package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/sharedspace/internal/model"
)

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	Priority    string         `db:"priority"`
	DueDate     sql.NullTime   `db:"due_date"`
	CreatedBy   string         `db:"created_by"`
	UserID      string         `db:"user_id"`
	FamilyID    sql.NullString `db:"family_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

const taskColumns = "id, title, description, status, priority, due_date, " +
	"created_by, user_id, family_id, created_at, updated_at"

func (r taskRow) toModel() model.Task {
	return model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      model.TaskStatus(r.Status),
		Priority:    model.Priority(r.Priority),
		DueDate:     timePtr(r.DueDate),
		CreatedBy:   r.CreatedBy,
		UserID:      r.UserID,
		FamilyID:    stringPtr(r.FamilyID),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ListTasks retrieves tasks matching q.
func (s *SQLiteStore) ListTasks(ctx context.Context, q Query) ([]model.Task, error) {
	query, args, err := buildSelect(taskColumns, CollectionTasks, q)
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

// CreateTask inserts a new task. Generates an ID if empty and stamps
// created/updated times.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return model.Task{}, fmt.Errorf("%w: task title must not be empty", model.ErrValidation)
	}
	if t.UserID == "" {
		return model.Task{}, fmt.Errorf("%w: task must have an owning user", model.ErrValidation)
	}
	if t.ID == "" {
		t.ID = NewID(PrefixTask)
	}
	if !t.Status.Valid() {
		t.Status = model.TaskStatusTodo
	}
	if !t.Priority.Valid() {
		t.Priority = model.PriorityMedium
	}
	if t.CreatedBy == "" {
		t.CreatedBy = t.UserID
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, status, priority, due_date,
			created_by, user_id, family_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), nullTime(t.DueDate),
		t.CreatedBy, t.UserID, nullString(t.FamilyID), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", translateErr(err))
	}
	return t, nil
}

// UpdateTask applies a partial update and bumps updated_at.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	var sets []string
	var args []any

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return fmt.Errorf("%w: task title must not be empty", model.ErrValidation)
		}
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*patch.Priority))
	}
	if patch.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, patch.DueDate.UTC())
	}
	if patch.ClearFamily {
		sets = append(sets, "family_id = NULL")
	} else if patch.FamilyID != nil {
		sets = append(sets, "family_id = ?")
		args = append(args, *patch.FamilyID)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, translateErr(err))
	}
	return expectRow(result, "task", id)
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return expectRow(result, "task", id)
}
