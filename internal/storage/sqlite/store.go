package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

const taskColumns = `id, title, description, due_date, priority, project, section, labels,
    recurring, recurring_type, custom_recurring_pattern, subtasks, created_at, completed`

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("sqlite store ready", slog.String("path", dbPath))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS labels (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            due_date TEXT,
            priority TEXT NOT NULL DEFAULT 'medium',
            project TEXT NOT NULL DEFAULT '',
            section TEXT NOT NULL DEFAULT '',
            labels TEXT NOT NULL DEFAULT '[]',
            recurring INTEGER NOT NULL DEFAULT 0,
            recurring_type TEXT NOT NULL DEFAULT '',
            custom_recurring_pattern TEXT NOT NULL DEFAULT '',
            subtasks TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME NOT NULL,
            completed INTEGER NOT NULL DEFAULT 0,
            seq INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_seq ON tasks(seq);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ListProjects retrieves all projects in insertion order.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM projects ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject registers a project name.
func (s *Store) CreateProject(ctx context.Context, name string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty")
	}

	p := models.Project{ID: uuid.NewString(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, name) VALUES(?, ?)`, p.ID, p.Name); err != nil {
		if isUniqueViolation(err) {
			return models.Project{}, fmt.Errorf("project %q: %w", name, storage.ErrDuplicate)
		}
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// ListLabels retrieves all labels in insertion order.
func (s *Store) ListLabels(ctx context.Context) ([]models.Label, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM labels ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	labels := []models.Label{}
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// CreateLabel registers a label name.
func (s *Store) CreateLabel(ctx context.Context, name string) (models.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Label{}, fmt.Errorf("label name must not be empty")
	}

	l := models.Label{ID: uuid.NewString(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO labels(id, name) VALUES(?, ?)`, l.ID, l.Name); err != nil {
		if isUniqueViolation(err) {
			return models.Label{}, fmt.Errorf("label %q: %w", name, storage.ErrDuplicate)
		}
		return models.Label{}, fmt.Errorf("insert label: %w", err)
	}
	return l, nil
}

// ListTasks returns every task in creation order.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY seq, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task with a fresh identifier.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	labels, subtasks, err := encodeLists(t)
	if err != nil {
		return models.Task{}, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`, seq)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks))`,
		t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Project, t.Section, labels,
		t.Recurring, t.RecurringType, t.CustomRecurringPattern, subtasks, t.CreatedAt, t.Completed)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.ID)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// UpdateTask merges patch into the stored task. ID and creation time never change.
func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := current.Apply(patch); err != nil {
		return models.Task{}, err
	}
	if err := current.Validate(); err != nil {
		return models.Task{}, err
	}

	labels, subtasks, err := encodeLists(current)
	if err != nil {
		return models.Task{}, err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?,
        project = ?, section = ?, labels = ?, recurring = ?, recurring_type = ?, custom_recurring_pattern = ?,
        subtasks = ?, completed = ? WHERE id = ?`,
		current.Title, current.Description, current.DueDate, current.Priority, current.Project, current.Section,
		labels, current.Recurring, current.RecurringType, current.CustomRecurringPattern, subtasks, current.Completed, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (models.Task, error) {
	var (
		t        models.Task
		due      models.Date
		labels   string
		subtasks string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &due, &t.Priority, &t.Project, &t.Section, &labels,
		&t.Recurring, &t.RecurringType, &t.CustomRecurringPattern, &subtasks, &t.CreatedAt, &t.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, err
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if !due.IsZero() {
		t.DueDate = &due
	}
	if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
		return models.Task{}, fmt.Errorf("decode labels of task %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(subtasks), &t.Subtasks); err != nil {
		return models.Task{}, fmt.Errorf("decode subtasks of task %s: %w", t.ID, err)
	}
	t.Normalize()
	return t, nil
}

func encodeLists(t models.Task) (string, string, error) {
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return "", "", fmt.Errorf("encode labels: %w", err)
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return "", "", fmt.Errorf("encode subtasks: %w", err)
	}
	return string(labels), string(subtasks), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
