package taskform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sharedspace/internal/model"
)

func TestInput(t *testing.T) {
	fb := formBindings{
		title:    "  Buy milk ",
		dueDate:  "2026-06-15",
		familyID: "fam_1",
	}

	in := fb.input(time.UTC)
	assert.Equal(t, "Buy milk", in.Title)
	assert.Equal(t, model.TaskStatusTodo, in.Status)
	assert.Equal(t, model.PriorityMedium, in.Priority)
	require.NotNil(t, in.DueDate)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), *in.DueDate)
	require.NotNil(t, in.FamilyID)
	assert.Equal(t, "fam_1", *in.FamilyID)
}

func TestPatchOnlyChangedFields(t *testing.T) {
	due := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	family := "fam_1"
	task := model.Task{
		ID:       "task_1",
		Title:    "Buy milk",
		Status:   model.TaskStatusTodo,
		Priority: model.PriorityLow,
		DueDate:  &due,
		FamilyID: &family,
	}

	fb := formBindings{
		title:    "Buy milk",
		status:   model.TaskStatusTodo,
		priority: model.PriorityHigh,
		dueDate:  "2026-06-15",
		familyID: "fam_1",
	}
	p := fb.patch(task, time.UTC)
	assert.Nil(t, p.Title)
	assert.Nil(t, p.Status)
	require.NotNil(t, p.Priority)
	assert.Equal(t, model.PriorityHigh, *p.Priority)
	assert.Nil(t, p.DueDate)
	assert.False(t, p.ClearDueDate)
	assert.False(t, p.ClearFamily)

	fb.dueDate = ""
	fb.familyID = ""
	p = fb.patch(task, time.UTC)
	assert.True(t, p.ClearDueDate)
	assert.True(t, p.ClearFamily)
}

func TestValidateOptionalDate(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2026-02-28"))
	assert.Error(t, validateOptionalDate("28/02/2026"))
	assert.Error(t, validateRequired("Title")("   "))
}
