package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrTitleRequired        = errors.New("task title must not be empty")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidRecurringType = errors.New("invalid recurring type")
	ErrUnknownProject       = errors.New("unknown project")
	ErrUnknownLabel         = errors.New("unknown label")
	ErrInvalidDate          = errors.New("invalid date")
)

// Priority ranks a task. Zero value is treated as medium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists the priorities from most to least pressing.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts the enum names; an empty string yields medium.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !slices.Contains(Priorities, p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Rank orders priorities urgent (0) through low (3). Unknown values rank last.
func (p Priority) Rank() int {
	if i := slices.Index(Priorities, p); i >= 0 {
		return i
	}
	return len(Priorities)
}

// RecurringType is only meaningful when Task.Recurring is set.
type RecurringType string

const (
	RecurringDaily   RecurringType = "daily"
	RecurringWeekly  RecurringType = "weekly"
	RecurringMonthly RecurringType = "monthly"
	RecurringCustom  RecurringType = "custom"
)

var RecurringTypes = []RecurringType{RecurringDaily, RecurringWeekly, RecurringMonthly, RecurringCustom}

// ParseRecurringType accepts the enum names or an empty string (unset).
func ParseRecurringType(s string) (RecurringType, error) {
	r := RecurringType(strings.ToLower(strings.TrimSpace(s)))
	if r == "" || slices.Contains(RecurringTypes, r) {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRecurringType, s)
}

// Subtask is a checklist entry owned by a task.
type Subtask struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Task is a single to-do item. Project and Labels reference registry entries by name.
type Task struct {
	ID                     string        `json:"id" yaml:"id"`
	Title                  string        `json:"title" yaml:"title"`
	Description            string        `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate                *Date         `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Priority               Priority      `json:"priority" yaml:"priority"`
	Project                string        `json:"project,omitempty" yaml:"project,omitempty"`
	Section                string        `json:"section,omitempty" yaml:"section,omitempty"`
	Labels                 []string      `json:"labels" yaml:"labels"`
	Recurring              bool          `json:"recurring" yaml:"recurring"`
	RecurringType          RecurringType `json:"recurringType,omitempty" yaml:"recurringType,omitempty"`
	CustomRecurringPattern string        `json:"customRecurringPattern,omitempty" yaml:"customRecurringPattern,omitempty"`
	Subtasks               []Subtask     `json:"subtasks" yaml:"subtasks"`
	CreatedAt              time.Time     `json:"createdAt" yaml:"createdAt"`
	Completed              bool          `json:"completed" yaml:"completed"`
}

// Normalize fills defaults so that stored and returned tasks have the same shape.
func (t *Task) Normalize() {
	if t.Labels == nil {
		t.Labels = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.DueDate != nil && t.DueDate.IsZero() {
		t.DueDate = nil
	}
}

// Validate checks the required title and the enum fields.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if t.Priority != "" && t.Priority.Rank() == len(Priorities) {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if _, err := ParseRecurringType(string(t.RecurringType)); err != nil {
		return err
	}
	return nil
}

// CheckReferences verifies that the project and every label exist in the registries.
func (t Task) CheckReferences(projects []Project, labels []Label) error {
	if t.Project != "" && !slices.ContainsFunc(projects, func(p Project) bool { return p.Name == t.Project }) {
		return fmt.Errorf("%w: %q", ErrUnknownProject, t.Project)
	}
	for _, name := range t.Labels {
		if !slices.ContainsFunc(labels, func(l Label) bool { return l.Name == name }) {
			return fmt.Errorf("%w: %q", ErrUnknownLabel, name)
		}
	}
	return nil
}

// HasLabel reports whether name is one of the task's labels.
func (t Task) HasLabel(name string) bool {
	return slices.Contains(t.Labels, name)
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	out := t
	out.Labels = slices.Clone(t.Labels)
	out.Subtasks = slices.Clone(t.Subtasks)
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}

// Project is a named bucket tasks can reference.
type Project struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Label is a named tag tasks can reference.
type Label struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
