// Package controller keeps an in-memory copy of the store's tasks and
// registries and drives every user action against a storage.Store.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"taskmanager/internal/form"
	"taskmanager/internal/models"
	"taskmanager/internal/query"
	"taskmanager/internal/storage"
)

// ErrDuplicateName is returned when a project or label name is already registered.
var ErrDuplicateName = errors.New("name already exists")

// Confirmer asks the user before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Controller is not safe for concurrent use.
type Controller struct {
	store   storage.Store
	confirm Confirmer
	logger  *slog.Logger
	now     func() time.Time

	tasks    []models.Task
	projects []models.Project
	labels   []models.Label
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New returns a controller over store. A nil confirm declines every delete.
func New(store storage.Store, confirm Confirmer, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		confirm: confirm,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches tasks, projects and labels.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	projects, err := c.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	labels, err := c.store.ListLabels(ctx)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}
	c.tasks, c.projects, c.labels = tasks, projects, labels
	return nil
}

func (c *Controller) reloadTasks(ctx context.Context) error {
	tasks, err := c.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("reload tasks: %w", err)
	}
	c.tasks = tasks
	return nil
}

// List returns the loaded tasks in view, matching search, ordered by sortKey.
func (c *Controller) List(view, sortKey, search string) []models.Task {
	return query.Apply(c.tasks, query.Options{View: view, Sort: sortKey, Search: search}, c.now())
}

// Tasks returns every loaded task.
func (c *Controller) Tasks() []models.Task {
	return slices.Clone(c.tasks)
}

// Projects returns the loaded project registry.
func (c *Controller) Projects() []models.Project {
	return slices.Clone(c.projects)
}

// Labels returns the loaded label registry.
func (c *Controller) Labels() []models.Label {
	return slices.Clone(c.labels)
}

// Task looks up a loaded task by id.
func (c *Controller) Task(id string) (models.Task, bool) {
	i := slices.IndexFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
	if i < 0 {
		return models.Task{}, false
	}
	return c.tasks[i].Clone(), true
}

// Edit returns the form state for an existing task.
func (c *Controller) Edit(id string) (form.State, error) {
	t, ok := c.Task(id)
	if !ok {
		return form.State{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return form.ToFormState(&t), nil
}

// Save creates the task described by state, or updates it when state has an id.
func (c *Controller) Save(ctx context.Context, state form.State) (models.Task, error) {
	task, err := form.FromFormState(state, c.now())
	if err != nil {
		return models.Task{}, err
	}
	if err := task.CheckReferences(c.projects, c.labels); err != nil {
		return models.Task{}, err
	}

	var saved models.Task
	if state.IsEdit() {
		saved, err = c.store.UpdateTask(ctx, state.ID, models.FullPatch(task))
	} else {
		saved, err = c.store.CreateTask(ctx, task)
	}
	if err != nil {
		return models.Task{}, err
	}
	c.logger.Debug("task saved", slog.String("id", saved.ID), slog.Bool("edit", state.IsEdit()))

	if err := c.reloadTasks(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// ToggleCompletion sets the completed flag of one task. On failure the
// loaded task is left as it was.
func (c *Controller) ToggleCompletion(ctx context.Context, id string, completed bool) (models.Task, error) {
	updated, err := c.store.UpdateTask(ctx, id, models.CompletionPatch(completed))
	if err != nil {
		return models.Task{}, err
	}
	if i := slices.IndexFunc(c.tasks, func(t models.Task) bool { return t.ID == id }); i >= 0 {
		c.tasks[i] = updated
	}
	return updated, nil
}

// Delete removes a task after the Confirmer agrees. It reports whether the
// task was deleted.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	prompt := "Delete this task?"
	if t, ok := c.Task(id); ok {
		prompt = fmt.Sprintf("Delete %q?", t.Title)
	}
	if c.confirm == nil || !c.confirm.Confirm(prompt) {
		return false, nil
	}
	if err := c.store.DeleteTask(ctx, id); err != nil {
		return false, err
	}
	c.tasks = slices.DeleteFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
	return true, nil
}

// AddProject registers name. Blank names are ignored and report false.
func (c *Controller) AddProject(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	if slices.ContainsFunc(c.projects, func(p models.Project) bool { return p.Name == name }) {
		return false, fmt.Errorf("project %q: %w", name, ErrDuplicateName)
	}
	p, err := c.store.CreateProject(ctx, name)
	if err != nil {
		return false, err
	}
	c.projects = append(c.projects, p)
	return true, nil
}

// AddLabel registers name. Blank names are ignored and report false.
func (c *Controller) AddLabel(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	if slices.ContainsFunc(c.labels, func(l models.Label) bool { return l.Name == name }) {
		return false, fmt.Errorf("label %q: %w", name, ErrDuplicateName)
	}
	l, err := c.store.CreateLabel(ctx, name)
	if err != nil {
		return false, err
	}
	c.labels = append(c.labels, l)
	return true, nil
}
