// Package storage defines the entity store contract shared by every backend.
package storage

import (
	"context"
	"errors"

	"taskmanager/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store persists tasks and the project and label registries.
// Projects and labels are append-only.
type Store interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, name string) (models.Project, error)

	ListLabels(ctx context.Context) ([]models.Label, error)
	CreateLabel(ctx context.Context, name string) (models.Label, error)

	Close() error
}
