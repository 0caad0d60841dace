// Package calendar maps tasks onto a month grid with per-day lists,
// month statistics and day selection.
package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/internal/taskview"
)

// ViewModel keeps the displayed month, the selected day and its own copy
// of the user's tasks. Month and selection belong to the UI goroutine.
type ViewModel struct {
	tasks *taskview.ViewModel

	month    time.Time
	selected *time.Time
	priority string
}

// New creates a calendar showing the month of now, with calendar days
// taken in loc.
func New(s store.Store, log *zap.Logger, now time.Time, loc *time.Location) *ViewModel {
	vm := &ViewModel{tasks: taskview.New(s, log)}
	vm.tasks.SetLocation(loc)
	vm.month = MonthStart(now, loc)
	return vm
}

func (vm *ViewModel) loc() *time.Location { return vm.tasks.Location() }

// SetLocation changes the zone calendar days are taken in.
func (vm *ViewModel) SetLocation(loc *time.Location) {
	vm.tasks.SetLocation(loc)
	y, m, _ := vm.month.Date()
	vm.month = time.Date(y, m, 1, 0, 0, 0, 0, loc)
}

// Load fetches the user's tasks.
func (vm *ViewModel) Load(ctx context.Context, userID string) error {
	_, err := vm.tasks.ListTasks(ctx, userID)
	return err
}

// SetSnapshot replaces the tasks with a hub snapshot.
func (vm *ViewModel) SetSnapshot(snap sync.Snapshot) {
	vm.tasks.SetSnapshot(snap)
}

// SetTasks replaces the tasks.
func (vm *ViewModel) SetTasks(userID string, tasks []model.Task) {
	vm.tasks.SetTasks(userID, tasks)
}

// SetFamilyContext scopes tasks created from the calendar to a family.
func (vm *ViewModel) SetFamilyContext(familyID *string) {
	vm.tasks.SetFamilyContext(familyID)
}

// Month returns midnight on the first day of the displayed month.
func (vm *ViewModel) Month() time.Time { return vm.month }

// NextMonth moves the grid forward one month.
func (vm *ViewModel) NextMonth() { vm.month = vm.month.AddDate(0, 1, 0) }

// PrevMonth moves the grid back one month.
func (vm *ViewModel) PrevMonth() { vm.month = vm.month.AddDate(0, -1, 0) }

// Today shows the month of now and selects now's day.
func (vm *ViewModel) Today(now time.Time) {
	vm.month = MonthStart(now, vm.loc())
	vm.Select(now)
}

// Select marks day as the selected day.
func (vm *ViewModel) Select(day time.Time) {
	d := taskview.StartOfDay(day, vm.loc())
	vm.selected = &d
}

// Show selects day and moves the grid to day's month.
func (vm *ViewModel) Show(day time.Time) {
	vm.month = MonthStart(day, vm.loc())
	vm.Select(day)
}

// ClearSelection removes the selected day.
func (vm *ViewModel) ClearSelection() { vm.selected = nil }

// Selected returns the selected day.
func (vm *ViewModel) Selected() (time.Time, bool) {
	if vm.selected == nil {
		return time.Time{}, false
	}
	return *vm.selected, true
}

// PriorityFilter returns the priority applied to per-day lists.
func (vm *ViewModel) PriorityFilter() string {
	if vm.priority == "" {
		return taskview.All
	}
	return vm.priority
}

// SetPriorityFilter sets the priority for per-day lists; "all" or ""
// shows every priority.
func (vm *ViewModel) SetPriorityFilter(p string) { vm.priority = p }

// Grid returns the cells of the displayed month.
func (vm *ViewModel) Grid() []Cell {
	return BuildGrid(vm.month, vm.loc())
}

// TasksOn returns the tasks due on day's calendar date that pass the
// priority filter.
func (vm *ViewModel) TasksOn(day time.Time) []model.Task {
	f := taskview.Filter{Priority: vm.priority}
	loc := vm.loc()
	var out []model.Task
	for _, t := range vm.tasks.Tasks() {
		if t.DueDate != nil && taskview.SameDay(*t.DueDate, day, loc) && f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// SelectedTasks returns the tasks of the selected day, nil without a
// selection.
func (vm *ViewModel) SelectedTasks() []model.Task {
	if vm.selected == nil {
		return nil
	}
	return vm.TasksOn(*vm.selected)
}

// MonthTasks returns tasks due in [start of month, start of next month).
func (vm *ViewModel) MonthTasks() []model.Task {
	start := vm.month
	end := start.AddDate(0, 1, 0)
	var out []model.Task
	for _, t := range vm.tasks.Tasks() {
		if t.DueDate != nil && !t.DueDate.Before(start) && t.DueDate.Before(end) {
			out = append(out, t)
		}
	}
	return out
}

// MonthStats counts the displayed month's tasks.
func (vm *ViewModel) MonthStats(now time.Time) taskview.Stats {
	return taskview.ComputeStats(vm.MonthTasks(), now)
}

// NewTaskDefaults pre-fills a task for the selected day, or for the
// first of the displayed month without a selection.
func (vm *ViewModel) NewTaskDefaults() model.TaskInput {
	day := vm.month
	if vm.selected != nil {
		day = *vm.selected
	}
	return model.TaskInput{
		Status:   model.TaskStatusTodo,
		Priority: model.PriorityMedium,
		DueDate:  &day,
	}
}

// ToggleComplete flips a task between completed and todo.
func (vm *ViewModel) ToggleComplete(ctx context.Context, id string) error {
	return vm.tasks.ToggleComplete(ctx, id)
}

// CreateTask validates and stores a task, then prepends it.
func (vm *ViewModel) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	return vm.tasks.CreateTask(ctx, in)
}
