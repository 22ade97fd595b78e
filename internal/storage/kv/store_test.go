package kv

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

func TestOpenSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	s, err := Open(ctx, backend, nil)
	require.NoError(t, err)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Project{
		{ID: "Work", Name: "Work"},
		{ID: "Personal", Name: "Personal"},
		{ID: "Shopping", Name: "Shopping"},
	}, projects)

	labels, err := s.ListLabels(ctx)
	require.NoError(t, err)
	assert.Len(t, labels, 3)

	raw, err := backend.Get(ctx, KeyProjects)
	require.NoError(t, err)
	assert.JSONEq(t, `["Work","Personal","Shopping"]`, string(raw))

	raw, err = backend.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestOpenKeepsExistingRegistries(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, KeyProjects, []byte(`[]`)))
	require.NoError(t, backend.Put(ctx, KeyLabels, []byte(`["Home"]`)))

	s, err := Open(ctx, backend, nil)
	require.NoError(t, err)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	labels, err := s.ListLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Label{{ID: "Home", Name: "Home"}}, labels)
}

func TestOpenRejectsCorruptData(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, KeyTasks, []byte(`{not json`)))

	_, err := Open(ctx, backend, nil)
	assert.Error(t, err)
}

func TestDuplicateNamesRejected(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryBackend(), nil)
	require.NoError(t, err)

	_, err = s.CreateProject(ctx, "Work")
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	p, err := s.CreateProject(ctx, " Garden ")
	require.NoError(t, err)
	assert.Equal(t, "Garden", p.Name)

	_, err = s.CreateLabel(ctx, "")
	assert.Error(t, err)
	_, err = s.CreateLabel(ctx, "Urgent")
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 4)
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryBackend(), nil)
	require.NoError(t, err)

	a, err := s.CreateTask(ctx, models.Task{Title: "A", Labels: []string{"Urgent"}})
	require.NoError(t, err)
	b, err := s.CreateTask(ctx, models.Task{Title: "B"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())

	_, err = s.CreateTask(ctx, models.Task{Title: ""})
	assert.ErrorIs(t, err, models.ErrTitleRequired)

	got, err := s.GetTask(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Urgent"}, got.Labels)

	updated, err := s.UpdateTask(ctx, a.ID, models.CompletionPatch(true))
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, a.ID, updated.ID)
	assert.True(t, a.CreatedAt.Equal(updated.CreatedAt))

	bad := models.Priority("eventually")
	_, err = s.UpdateTask(ctx, a.ID, models.TaskPatch{Priority: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidPriority)
	got, err = s.GetTask(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, got.Priority)

	require.NoError(t, s.DeleteTask(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteTask(ctx, a.ID), storage.ErrNotFound)
	_, err = s.UpdateTask(ctx, a.ID, models.CompletionPatch(false))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "B", tasks[0].Title)
}

func TestFileBackendPersists(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	s, err := Open(ctx, backend, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.CreateTask(ctx, models.Task{Title: "task " + strconv.Itoa(i)})
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	for _, key := range []string{KeyTasks, KeyProjects, KeyLabels} {
		_, err := os.Stat(filepath.Join(dir, key+".json"))
		assert.NoError(t, err, key)
	}

	backend, err = NewFileBackend(dir)
	require.NoError(t, err)
	s, err = Open(ctx, backend, nil)
	require.NoError(t, err)
	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temporary files must not be left behind")
}

func TestFileBackendMissingKey(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	_, err = backend.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = NewFileBackend("")
	assert.Error(t, err)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("TASKMANAGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TASKMANAGER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "taskmanager-test:" + t.Name() + ":"

	backend, err := NewRedisBackend(ctx, RedisOptions{Addr: addr, Prefix: prefix})
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, backend.Put(ctx, "k", []byte(`["x"]`)))
	got, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, string(got))

	require.NoError(t, backend.client.Del(ctx, prefix+"k").Err())
}

func TestRedisBackendUnreachable(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
