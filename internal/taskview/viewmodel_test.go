package taskview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/taskview"
	"github.com/nhle/sharedspace/tests/testutil"
)

var errBackend = errors.New("backend unavailable")

// failingStore fails every task mutation.
type failingStore struct {
	store.Store
}

func (failingStore) CreateTask(context.Context, model.Task) (model.Task, error) {
	return model.Task{}, errBackend
}

func (failingStore) UpdateTask(context.Context, string, model.TaskPatch) error {
	return errBackend
}

func (failingStore) DeleteTask(context.Context, string) error {
	return errBackend
}

func newViewModel(t *testing.T) (*taskview.ViewModel, store.Store) {
	t.Helper()
	s := testutil.NewTestStore(t)
	vm := taskview.New(s, zap.NewNop())
	vm.SetLocation(time.UTC)
	return vm, s
}

func TestListTasks(t *testing.T) {
	vm, s := newViewModel(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		_, err := s.CreateTask(ctx, model.Task{Title: title, UserID: "u1"})
		require.NoError(t, err)
	}
	_, err := s.CreateTask(ctx, model.Task{Title: "someone else", UserID: "u2"})
	require.NoError(t, err)

	tasks, err := vm.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "second", tasks[0].Title)
	assert.Len(t, vm.Tasks(), 2)
}

func TestCreateTaskPrepends(t *testing.T) {
	vm, _ := newViewModel(t)
	ctx := context.Background()
	_, err := vm.ListTasks(ctx, "u1")
	require.NoError(t, err)

	first, err := vm.CreateTask(ctx, model.TaskInput{Title: "  first  "})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Title)
	assert.Equal(t, model.TaskStatusTodo, first.Status)
	assert.Equal(t, model.PriorityMedium, first.Priority)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "u1", first.CreatedBy)

	second, err := vm.CreateTask(ctx, model.TaskInput{Title: "second", Priority: model.PriorityHigh})
	require.NoError(t, err)

	tasks := vm.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestCreateTaskValidatesBeforeStore(t *testing.T) {
	vm := taskview.New(failingStore{}, zap.NewNop())
	vm.SetTasks("u1", nil)

	_, err := vm.CreateTask(context.Background(), model.TaskInput{Title: "   "})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.NotErrorIs(t, err, errBackend)
}

func TestCreateTaskRequiresUser(t *testing.T) {
	vm, _ := newViewModel(t)

	_, err := vm.CreateTask(context.Background(), model.TaskInput{Title: "x"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestCreateTaskUsesFamilyContext(t *testing.T) {
	vm, s := newViewModel(t)
	ctx := context.Background()

	fam, err := s.CreateFamily(ctx, model.Family{Name: "Home", OwnerID: "u1"})
	require.NoError(t, err)

	vm.SetTasks("u1", nil)
	vm.SetFamilyContext(&fam.ID)

	created, err := vm.CreateTask(ctx, model.TaskInput{Title: "Dishes"})
	require.NoError(t, err)
	require.NotNil(t, created.FamilyID)
	assert.Equal(t, fam.ID, *created.FamilyID)

	vm.SetFamilyContext(nil)
	personal, err := vm.CreateTask(ctx, model.TaskInput{Title: "Gym"})
	require.NoError(t, err)
	assert.Nil(t, personal.FamilyID)
}

func TestFailuresLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	existing := model.Task{ID: "task_1", Title: "keep me", Status: model.TaskStatusTodo, UserID: "u1"}

	vm := taskview.New(failingStore{}, zap.NewNop())
	vm.SetTasks("u1", []model.Task{existing})

	_, err := vm.CreateTask(ctx, model.TaskInput{Title: "new"})
	assert.ErrorIs(t, err, errBackend)

	done := model.TaskStatusCompleted
	assert.ErrorIs(t, vm.UpdateTask(ctx, existing.ID, model.TaskPatch{Status: &done}), errBackend)
	assert.ErrorIs(t, vm.DeleteTask(ctx, existing.ID), errBackend)

	assert.Equal(t, []model.Task{existing}, vm.Tasks())
}

func TestUpdateAndToggle(t *testing.T) {
	vm, _ := newViewModel(t)
	ctx := context.Background()
	vm.SetTasks("u1", nil)

	created, err := vm.CreateTask(ctx, model.TaskInput{Title: "Laundry"})
	require.NoError(t, err)

	require.NoError(t, vm.ToggleComplete(ctx, created.ID))
	got, ok := vm.Task(created.ID)
	require.True(t, ok)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)

	require.NoError(t, vm.ToggleComplete(ctx, created.ID))
	got, _ = vm.Task(created.ID)
	assert.Equal(t, model.TaskStatusTodo, got.Status)

	require.NoError(t, vm.ToggleInProgress(ctx, created.ID))
	got, _ = vm.Task(created.ID)
	assert.Equal(t, model.TaskStatusInProgress, got.Status)

	title := "Laundry and ironing"
	require.NoError(t, vm.UpdateTask(ctx, created.ID, model.TaskPatch{Title: &title}))
	got, _ = vm.Task(created.ID)
	assert.Equal(t, title, got.Title)

	blank := " "
	assert.ErrorIs(t, vm.UpdateTask(ctx, created.ID, model.TaskPatch{Title: &blank}), model.ErrValidation)

	bad := model.TaskStatus("blocked")
	assert.ErrorIs(t, vm.UpdateTask(ctx, created.ID, model.TaskPatch{Status: &bad}), model.ErrValidation)

	assert.ErrorIs(t, vm.ToggleComplete(ctx, "missing"), model.ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	vm, _ := newViewModel(t)
	ctx := context.Background()
	vm.SetTasks("u1", nil)

	created, err := vm.CreateTask(ctx, model.TaskInput{Title: "Temp"})
	require.NoError(t, err)

	require.NoError(t, vm.DeleteTask(ctx, created.ID))
	assert.Empty(t, vm.Tasks())
	assert.ErrorIs(t, vm.DeleteTask(ctx, created.ID), model.ErrNotFound)
}

func TestVisibleAndCounts(t *testing.T) {
	vm, _ := newViewModel(t)
	now := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	today := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	later := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)

	vm.SetTasks("u1", []model.Task{
		{ID: "a", Title: "Buy milk", Status: model.TaskStatusTodo, Priority: model.PriorityMedium, DueDate: &today},
		{ID: "b", Title: "Dentist", Status: model.TaskStatusTodo, Priority: model.PriorityHigh, DueDate: &later},
		{ID: "c", Title: "Old chore", Status: model.TaskStatusCompleted, Priority: model.PriorityLow},
	})

	assert.Equal(t, map[taskview.Bucket]int{
		taskview.BucketAll:       3,
		taskview.BucketToday:     1,
		taskview.BucketUpcoming:  1,
		taskview.BucketCompleted: 1,
	}, vm.BucketCounts(now))

	vm.SetFilter(taskview.Filter{Priority: "high"})
	visible := vm.Visible(taskview.BucketAll, now)
	require.Len(t, visible, 1)
	assert.Equal(t, "b", visible[0].ID)

	// Stats ignore the filter.
	assert.Equal(t, 3, vm.Stats(now).Total)
}
