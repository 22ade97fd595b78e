// Package snapshot copies the whole content of a store to and from a YAML or
// JSON document.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension; YAML unless it is .json.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

type Snapshot struct {
	ExportedAt time.Time        `json:"exportedAt" yaml:"exportedAt"`
	Projects   []models.Project `json:"projects" yaml:"projects"`
	Labels     []models.Label   `json:"labels" yaml:"labels"`
	Tasks      []models.Task    `json:"tasks" yaml:"tasks"`
}

// Export reads every task, project and label from store.
func Export(ctx context.Context, store storage.Store, now time.Time) (Snapshot, error) {
	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export tasks: %w", err)
	}
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export projects: %w", err)
	}
	labels, err := store.ListLabels(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export labels: %w", err)
	}
	return Snapshot{ExportedAt: now, Projects: projects, Labels: labels, Tasks: tasks}, nil
}

func Encode(w io.Writer, s Snapshot, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown snapshot format %q", f)
	}
}

func Decode(r io.Reader, f Format) (Snapshot, error) {
	var s Snapshot
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return Snapshot{}, fmt.Errorf("decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return Snapshot{}, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("unknown snapshot format %q", f)
	}
	return s, nil
}

// Result counts what Import created.
type Result struct {
	Projects int
	Labels   int
	Tasks    int
}

// Import adds the snapshot to store. Registry names already present are
// skipped and tasks get new ids. Every task is checked before anything is
// written.
func Import(ctx context.Context, store storage.Store, s Snapshot) (Result, error) {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return Result{}, err
	}
	labels, err := store.ListLabels(ctx)
	if err != nil {
		return Result{}, err
	}

	newProjects := missingNames(projectNames(projects), projectNames(s.Projects))
	newLabels := missingNames(labelNames(labels), labelNames(s.Labels))

	allProjects := slices.Clone(projects)
	for _, name := range newProjects {
		allProjects = append(allProjects, models.Project{Name: name})
	}
	allLabels := slices.Clone(labels)
	for _, name := range newLabels {
		allLabels = append(allLabels, models.Label{Name: name})
	}

	tasks := make([]models.Task, len(s.Tasks))
	for i, t := range s.Tasks {
		t = t.Clone()
		t.Normalize()
		if err := t.Validate(); err != nil {
			return Result{}, fmt.Errorf("task %d (%q): %w", i, t.Title, err)
		}
		if err := t.CheckReferences(allProjects, allLabels); err != nil {
			return Result{}, fmt.Errorf("task %d (%q): %w", i, t.Title, err)
		}
		tasks[i] = t
	}

	var res Result
	for _, name := range newProjects {
		if _, err := store.CreateProject(ctx, name); err != nil {
			return res, err
		}
		res.Projects++
	}
	for _, name := range newLabels {
		if _, err := store.CreateLabel(ctx, name); err != nil {
			return res, err
		}
		res.Labels++
	}
	for _, t := range tasks {
		if _, err := store.CreateTask(ctx, t); err != nil {
			return res, err
		}
		res.Tasks++
	}
	return res, nil
}

func projectNames(ps []models.Project) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func labelNames(ls []models.Label) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Name)
	}
	return out
}

// missingNames returns the distinct non-blank names of want absent from have.
func missingNames(have, want []string) []string {
	var out []string
	for _, name := range want {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(have, name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
