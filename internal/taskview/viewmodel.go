// Package taskview holds the derived state of the task list: filters,
// buckets, statistics and the mutations that keep it in step with the
// store.
package taskview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/sync"
)

// ViewModel keeps one user's tasks. Methods are safe for concurrent use.
type ViewModel struct {
	store store.Store
	log   *zap.Logger
	loc   *time.Location

	mu       gosync.Mutex
	userID   string
	familyID *string
	tasks    []model.Task
	filter   Filter
}

// New creates an empty view-model using the local time zone.
func New(s store.Store, log *zap.Logger) *ViewModel {
	return &ViewModel{store: s, log: log, loc: time.Local}
}

// SetLocation changes the zone used for calendar-day comparisons.
func (vm *ViewModel) SetLocation(loc *time.Location) {
	vm.mu.Lock()
	vm.loc = loc
	vm.mu.Unlock()
}

// Location returns the zone used for calendar-day comparisons.
func (vm *ViewModel) Location() *time.Location {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.loc
}

// ListTasks loads userID's tasks, newest first, and makes them the
// local state.
func (vm *ViewModel) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := vm.store.ListTasks(ctx, store.Where("user_id", userID).Sort("created_at", true))
	if err != nil {
		vm.log.Error("listing tasks failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	vm.mu.Lock()
	vm.userID = userID
	vm.tasks = tasks
	vm.mu.Unlock()

	return cloneTasks(tasks), nil
}

// SetSnapshot replaces the local state with a hub snapshot.
func (vm *ViewModel) SetSnapshot(snap sync.Snapshot) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.userID = snap.UserID
	vm.tasks = cloneTasks(snap.Tasks)
}

// SetTasks replaces the local task list.
func (vm *ViewModel) SetTasks(userID string, tasks []model.Task) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.userID = userID
	vm.tasks = cloneTasks(tasks)
}

// SetFamilyContext sets the family new tasks are scoped to; nil for
// personal tasks.
func (vm *ViewModel) SetFamilyContext(familyID *string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if familyID == nil {
		vm.familyID = nil
		return
	}
	id := *familyID
	vm.familyID = &id
}

// CreateTask validates in, stores the task and prepends it.
func (vm *ViewModel) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	in = in.Normalize()
	if in.Title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", model.ErrValidation)
	}

	vm.mu.Lock()
	userID := vm.userID
	if in.FamilyID == nil && vm.familyID != nil {
		id := *vm.familyID
		in.FamilyID = &id
	}
	vm.mu.Unlock()

	if userID == "" {
		return model.Task{}, model.ErrUnauthenticated
	}

	created, err := vm.store.CreateTask(ctx, model.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		FamilyID:    in.FamilyID,
		CreatedBy:   userID,
		UserID:      userID,
	})
	if err != nil {
		vm.log.Error("creating task failed", zap.String("user_id", userID), zap.Error(err))
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}

	vm.mu.Lock()
	vm.tasks = append([]model.Task{created}, vm.tasks...)
	vm.mu.Unlock()

	return sync.CloneTask(created), nil
}

// UpdateTask applies patch in the store, then locally.
func (vm *ViewModel) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	if err := vm.store.UpdateTask(ctx, id, patch); err != nil {
		vm.log.Error("updating task failed", zap.String("task_id", id), zap.Error(err))
		return fmt.Errorf("updating task: %w", err)
	}

	now := time.Now().UTC()
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i, t := range vm.tasks {
		if t.ID == id {
			updated := patch.ApplyTo(t)
			updated.UpdatedAt = now
			vm.tasks[i] = updated
			break
		}
	}
	return nil
}

func validatePatch(patch model.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrValidation, *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", model.ErrValidation, *patch.Priority)
	}
	return nil
}

// SetStatus moves a task to status.
func (vm *ViewModel) SetStatus(ctx context.Context, id string, status model.TaskStatus) error {
	return vm.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// ToggleComplete marks a completed task todo and anything else completed.
func (vm *ViewModel) ToggleComplete(ctx context.Context, id string) error {
	t, ok := vm.Task(id)
	if !ok {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	next := model.TaskStatusCompleted
	if t.IsCompleted() {
		next = model.TaskStatusTodo
	}
	return vm.SetStatus(ctx, id, next)
}

// ToggleInProgress starts a task, or returns an in-progress one to todo.
func (vm *ViewModel) ToggleInProgress(ctx context.Context, id string) error {
	t, ok := vm.Task(id)
	if !ok {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	next := model.TaskStatusInProgress
	if t.Status == model.TaskStatusInProgress {
		next = model.TaskStatusTodo
	}
	return vm.SetStatus(ctx, id, next)
}

// DeleteTask removes a task from the store, then locally.
func (vm *ViewModel) DeleteTask(ctx context.Context, id string) error {
	if err := vm.store.DeleteTask(ctx, id); err != nil {
		vm.log.Error("deleting task failed", zap.String("task_id", id), zap.Error(err))
		return fmt.Errorf("deleting task: %w", err)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.tasks = slices.DeleteFunc(vm.tasks, func(t model.Task) bool { return t.ID == id })
	return nil
}

// Task returns a task by id.
func (vm *ViewModel) Task(id string) (model.Task, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for _, t := range vm.tasks {
		if t.ID == id {
			return sync.CloneTask(t), true
		}
	}
	return model.Task{}, false
}

// Tasks returns a copy of every task, unfiltered.
func (vm *ViewModel) Tasks() []model.Task {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return cloneTasks(vm.tasks)
}

// Filter returns the active filter.
func (vm *ViewModel) Filter() Filter {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.filter
}

// SetFilter replaces the active filter.
func (vm *ViewModel) SetFilter(f Filter) {
	vm.mu.Lock()
	vm.filter = f
	vm.mu.Unlock()
}

// Filtered returns the tasks passing the active filter.
func (vm *ViewModel) Filtered() []model.Task {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return cloneTasks(Apply(vm.tasks, vm.filter))
}

// Visible returns the filtered tasks of bucket b.
func (vm *ViewModel) Visible(b Bucket, now time.Time) []model.Task {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return cloneTasks(InBucketTasks(Apply(vm.tasks, vm.filter), b, now, vm.loc))
}

// BucketCounts returns the size of every bucket over the filtered set.
func (vm *ViewModel) BucketCounts(now time.Time) map[Bucket]int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	filtered := Apply(vm.tasks, vm.filter)
	counts := make(map[Bucket]int, len(Buckets))
	for _, b := range Buckets {
		counts[b] = len(InBucketTasks(filtered, b, now, vm.loc))
	}
	return counts
}

// Stats counts the full, unfiltered task list.
func (vm *ViewModel) Stats(now time.Time) Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return ComputeStats(vm.tasks, now)
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = sync.CloneTask(t)
	}
	return out
}
