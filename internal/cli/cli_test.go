package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

type harness struct {
	t    *testing.T
	args []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	dir := filepath.Join(t.TempDir(), "data")
	return &harness{t: t, args: []string{"--driver", "file", "--data-dir", dir, "--log-level", "error"}}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), append(args, h.args...), strings.NewReader(stdin), &out, &out)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) tasks(args ...string) []models.Task {
	h.t.Helper()
	out := h.mustRun(append([]string{"tasks", "list", "--json"}, args...)...)
	var tasks []models.Task
	require.NoError(h.t, json.Unmarshal([]byte(out), &tasks), out)
	return tasks
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), []string{"version"}, nil, &out, &out))
	assert.Contains(t, out.String(), "taskmanager 1.2.3")
}

func TestTaskCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("tasks", "add", "Pay", "rent", "--priority", "high", "--labels", "Urgent", "--project", "Personal",
		"--subtask", "log in", "--subtask", "transfer")
	assert.Contains(t, out, "Created task")
	h.mustRun("tasks", "add", "Buy milk", "-p", "low")

	tasks := h.tasks("--view", "important")
	require.Len(t, tasks, 1)
	rent := tasks[0]
	assert.Equal(t, "Pay rent", rent.Title)
	assert.Len(t, rent.Subtasks, 2)

	out = h.mustRun("tasks", "list", "--sort", "title")
	assert.Less(t, strings.Index(out, "Buy milk"), strings.Index(out, "Pay rent"))
	assert.Contains(t, out, "PRIORITY")

	h.mustRun("tasks", "edit", rent.ID[:8], "--description", "landlord", "--remove-subtask", "1", "--due", "2026-11-01")
	out = h.mustRun("tasks", "show", rent.ID)
	assert.Contains(t, out, "landlord")
	assert.Contains(t, out, "2026-11-01")
	assert.Contains(t, out, "transfer")
	assert.NotContains(t, out, "log in")

	h.mustRun("tasks", "done", rent.ID)
	tasks = h.tasks("--view", "completed")
	require.Len(t, tasks, 1)
	assert.True(t, rent.CreatedAt.Equal(tasks[0].CreatedAt))

	h.mustRun("tasks", "undone", rent.ID)
	assert.Empty(t, h.tasks("--view", "completed"))

	assert.Len(t, h.tasks("-q", "LANDLORD"), 1)
	assert.Len(t, h.tasks("--label", "Urgent"), 1)
	assert.Len(t, h.tasks("--project", "Work"), 0)
}

func TestTaskValidationErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "tasks", "add", "x", "--project", "Nowhere")
	assert.ErrorIs(t, err, models.ErrUnknownProject)

	_, err = h.run("", "tasks", "add", "x", "--priority", "someday")
	assert.ErrorIs(t, err, models.ErrInvalidPriority)

	_, err = h.run("", "tasks", "done", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Empty(t, h.tasks())
}

func TestDeleteConfirmation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "Keep me")
	id := h.tasks()[0].ID

	out, err := h.run("n\n", "tasks", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, `Delete "Keep me"?`)
	assert.Contains(t, out, "Kept task")
	assert.Len(t, h.tasks(), 1)

	out, err = h.run("", "tasks", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Kept task")

	out, err = h.run("yes\n", "tasks", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted task")
	assert.Empty(t, h.tasks())

	h.mustRun("tasks", "add", "Gone soon")
	h.mustRun("tasks", "delete", "--yes", h.tasks()[0].ID)
	assert.Empty(t, h.tasks())
}

func TestRegistryCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("projects", "list")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "Shopping")

	h.mustRun("projects", "add", "Garden")
	_, err := h.run("", "projects", "add", "Garden")
	assert.ErrorContains(t, err, "already exists")

	out = h.mustRun("labels", "add", " ")
	assert.Contains(t, out, "Nothing to add")

	h.mustRun("labels", "add", "Someday")
	out = h.mustRun("labels", "list")
	assert.Contains(t, out, "Someday")

	h.mustRun("tasks", "add", "Dig", "--project", "Garden", "--labels", "Someday")
	assert.Len(t, h.tasks("--project", "Garden"), 1)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("projects", "add", "Garden")
	h.mustRun("tasks", "add", "Dig", "--project", "Garden", "--due", "2026-04-01")

	file := filepath.Join(t.TempDir(), "backup.json")
	h.mustRun("export", file)

	other := newHarness(t)
	out := other.mustRun("import", file)
	assert.Contains(t, out, "Imported 1 tasks, 1 projects, 0 labels")

	tasks := other.tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Dig", tasks[0].Title)
	assert.Equal(t, "2026-04-01", tasks[0].DueDate.String())

	out = h.mustRun("export", "--format", "yaml")
	assert.Contains(t, out, "title: Dig")
}

func TestServeRejectsRemoteDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	err := Execute(context.Background(), []string{"serve", "--driver", "remote", "--log-level", "error"}, nil, &out, &out)
	assert.ErrorContains(t, err, "remote")
}

func TestInvalidDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	err := Execute(context.Background(), []string{"tasks", "list", "--driver", "mongo"}, nil, &out, &out)
	assert.ErrorContains(t, err, "store.driver")
}
