// Package kv is the key-value flavoured entity store: three keys holding
// JSON arrays of tasks, project names and label names.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

const (
	KeyTasks    = "tasks"
	KeyProjects = "projects"
	KeyLabels   = "labels"
)

var (
	DefaultProjects = []string{"Work", "Personal", "Shopping"}
	DefaultLabels   = []string{"Important", "Urgent", "Quick Task"}
)

// Store implements storage.Store on top of a Backend. Project and label
// identifiers are their names.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open seeds the default registries for missing keys and persists them.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("nil backend")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, logger: logger}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.loadNames(ctx, KeyProjects, DefaultProjects)
	if err != nil {
		return nil, err
	}
	labels, err := s.loadNames(ctx, KeyLabels, DefaultLabels)
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, KeyTasks, tasks); err != nil {
		return nil, err
	}
	if err := s.put(ctx, KeyProjects, projects); err != nil {
		return nil, err
	}
	if err := s.put(ctx, KeyLabels, labels); err != nil {
		return nil, err
	}

	logger.Debug("kv store ready", slog.Int("tasks", len(tasks)), slog.Int("projects", len(projects)), slog.Int("labels", len(labels)))
	return s, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	b, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Put(ctx, key, b)
}

func (s *Store) loadTasks(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if _, err := s.get(ctx, KeyTasks, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	return tasks, nil
}

func (s *Store) loadNames(ctx context.Context, key string, defaults []string) ([]string, error) {
	var names []string
	found, err := s.get(ctx, key, &names)
	if err != nil {
		return nil, err
	}
	if !found {
		return slices.Clone(defaults), nil
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTasks(ctx)
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return tasks[i], nil
}

func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	tasks = append(tasks, t)
	if err := s.put(ctx, KeyTasks, tasks); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}

	updated := tasks[i].Clone()
	if err := updated.Apply(patch); err != nil {
		return models.Task{}, err
	}
	if err := updated.Validate(); err != nil {
		return models.Task{}, err
	}
	tasks[i] = updated
	if err := s.put(ctx, KeyTasks, tasks); err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return s.put(ctx, KeyTasks, slices.Delete(tasks, i, i+1))
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.loadNames(ctx, KeyProjects, DefaultProjects)
	if err != nil {
		return nil, err
	}
	projects := make([]models.Project, 0, len(names))
	for _, n := range names {
		projects = append(projects, models.Project{ID: n, Name: n})
	}
	return projects, nil
}

func (s *Store) CreateProject(ctx context.Context, name string) (models.Project, error) {
	name, err := s.appendName(ctx, KeyProjects, DefaultProjects, "project", name)
	if err != nil {
		return models.Project{}, err
	}
	return models.Project{ID: name, Name: name}, nil
}

func (s *Store) ListLabels(ctx context.Context) ([]models.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.loadNames(ctx, KeyLabels, DefaultLabels)
	if err != nil {
		return nil, err
	}
	labels := make([]models.Label, 0, len(names))
	for _, n := range names {
		labels = append(labels, models.Label{ID: n, Name: n})
	}
	return labels, nil
}

func (s *Store) CreateLabel(ctx context.Context, name string) (models.Label, error) {
	name, err := s.appendName(ctx, KeyLabels, DefaultLabels, "label", name)
	if err != nil {
		return models.Label{}, err
	}
	return models.Label{ID: name, Name: name}, nil
}

func (s *Store) appendName(ctx context.Context, key string, defaults []string, kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%s name must not be empty", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.loadNames(ctx, key, defaults)
	if err != nil {
		return "", err
	}
	if slices.Contains(names, name) {
		return "", fmt.Errorf("%s %q: %w", kind, name, storage.ErrDuplicate)
	}
	if err := s.put(ctx, key, append(names, name)); err != nil {
		return "", err
	}
	return name, nil
}

func indexOf(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}
