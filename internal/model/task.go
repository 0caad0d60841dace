package model

import (
	"strings"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Priority is the urgency label of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from highest to lowest.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user and optionally
// scoped to a family.
type Task struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description"`
	Status      TaskStatus `json:"status" bson:"status"`
	Priority    Priority   `json:"priority" bson:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	CreatedBy   string     `json:"created_by" bson:"created_by"`
	UserID      string     `json:"user_id" bson:"user_id"`
	FamilyID    *string    `json:"family_id,omitempty" bson:"family_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// IsCompleted reports whether the task is in the completed state.
func (t Task) IsCompleted() bool { return t.Status == TaskStatusCompleted }

// IsOverdue reports whether the task has a due date strictly before now
// and is not completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.IsCompleted()
}

// TaskInput holds the caller-supplied fields for a new task.
type TaskInput struct {
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	DueDate     *time.Time
	FamilyID    *string
}

// Normalize trims text fields and fills status and priority defaults.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if !in.Status.Valid() {
		in.Status = TaskStatusTodo
	}
	if !in.Priority.Valid() {
		in.Priority = PriorityMedium
	}
	return in
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	FamilyID     *string
	ClearFamily  bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.FamilyID == nil && !p.ClearFamily
}

// ApplyTo returns a copy of t with the patch applied.
func (p TaskPatch) ApplyTo(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.ClearFamily {
		t.FamilyID = nil
	} else if p.FamilyID != nil {
		f := *p.FamilyID
		t.FamilyID = &f
	}
	return t
}
