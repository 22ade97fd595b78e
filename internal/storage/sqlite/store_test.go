package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "tasks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestProjectsAndLabels(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	work, err := s.CreateProject(ctx, " Work ")
	require.NoError(t, err)
	assert.Equal(t, "Work", work.Name)
	assert.NotEmpty(t, work.ID)

	_, err = s.CreateProject(ctx, "Work")
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = s.CreateProject(ctx, "   ")
	assert.Error(t, err)

	_, err = s.CreateProject(ctx, "Personal")
	require.NoError(t, err)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Work", projects[0].Name)
	assert.Equal(t, "Personal", projects[1].Name)

	_, err = s.CreateLabel(ctx, "Urgent")
	require.NoError(t, err)
	_, err = s.CreateLabel(ctx, "Urgent")
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	labels, err := s.ListLabels(ctx)
	require.NoError(t, err)
	assert.Len(t, labels, 1)
}

func TestTaskLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	due, err := models.ParseDate("2026-10-18")
	require.NoError(t, err)
	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	task, err := s.CreateTask(ctx, models.Task{
		ID:        "client-supplied",
		Title:     "Pay rent",
		DueDate:   &due,
		Priority:  models.PriorityHigh,
		Labels:    []string{"Urgent", "Urgent"},
		Subtasks:  []models.Subtask{{Text: "log in"}, {Text: "transfer", Completed: true}},
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "client-supplied", task.ID)
	assert.Equal(t, "Pay rent", task.Title)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-10-18", task.DueDate.String())
	assert.Equal(t, []string{"Urgent", "Urgent"}, task.Labels)
	assert.Equal(t, []models.Subtask{{Text: "log in"}, {Text: "transfer", Completed: true}}, task.Subtasks)
	assert.True(t, created.Equal(task.CreatedAt))

	second, err := s.CreateTask(ctx, models.Task{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, second.Priority)
	assert.Nil(t, second.DueDate)
	assert.Empty(t, second.Labels)
	assert.WithinDuration(t, time.Now(), second.CreatedAt, time.Minute)

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, second.ID, tasks[1].ID)

	updated, err := s.UpdateTask(ctx, task.ID, models.CompletionPatch(true))
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Pay rent", updated.Title)
	assert.True(t, created.Equal(updated.CreatedAt))

	none := ""
	section := "bills"
	updated, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{DueDate: &none, Section: &section})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "bills", updated.Section)

	empty := " "
	_, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, models.ErrTitleRequired)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	_, err = s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), storage.ErrNotFound)

	_, err = s.UpdateTask(ctx, "missing", models.CompletionPatch(true))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateTaskValidates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, models.Task{})
	assert.ErrorIs(t, err, models.ErrTitleRequired)

	_, err = s.CreateTask(ctx, models.Task{Title: "x", Priority: "whenever"})
	assert.ErrorIs(t, err, models.ErrInvalidPriority)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, models.Task{Title: "persisted"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "persisted", tasks[0].Title)
}
