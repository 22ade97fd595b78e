package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// TaskPatch is a partial task update.
// nil pointer => "no change"; an empty or null DueDate clears the due date.
// ID and CreatedAt are not patchable.
type TaskPatch struct {
	Title                  *string        `json:"title,omitempty"`
	Description            *string        `json:"description,omitempty"`
	DueDate                *string        `json:"dueDate,omitempty"`
	Priority               *Priority      `json:"priority,omitempty"`
	Project                *string        `json:"project,omitempty"`
	Section                *string        `json:"section,omitempty"`
	Labels                 *[]string      `json:"labels,omitempty"`
	Recurring              *bool          `json:"recurring,omitempty"`
	RecurringType          *RecurringType `json:"recurringType,omitempty"`
	CustomRecurringPattern *string        `json:"customRecurringPattern,omitempty"`
	Subtasks               *[]Subtask     `json:"subtasks,omitempty"`
	Completed              *bool          `json:"completed,omitempty"`
}

// UnmarshalJSON keeps a present "dueDate": null apart from an absent key.
func (p *TaskPatch) UnmarshalJSON(b []byte) error {
	type plain TaskPatch
	var raw struct {
		plain
		DueDate json.RawMessage `json:"dueDate"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = TaskPatch(raw.plain)
	switch {
	case raw.DueDate == nil:
	case bytes.Equal(bytes.TrimSpace(raw.DueDate), []byte("null")):
		empty := ""
		p.DueDate = &empty
	default:
		var due string
		if err := json.Unmarshal(raw.DueDate, &due); err != nil {
			return fmt.Errorf("dueDate must be a string: %w", err)
		}
		p.DueDate = &due
	}
	return nil
}

// FullPatch builds a patch that overwrites every mutable field with t's values.
func FullPatch(t Task) TaskPatch {
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	labels := slices.Clone(t.Labels)
	if labels == nil {
		labels = []string{}
	}
	subtasks := slices.Clone(t.Subtasks)
	if subtasks == nil {
		subtasks = []Subtask{}
	}
	return TaskPatch{
		Title:                  &t.Title,
		Description:            &t.Description,
		DueDate:                &due,
		Priority:               &t.Priority,
		Project:                &t.Project,
		Section:                &t.Section,
		Labels:                 &labels,
		Recurring:              &t.Recurring,
		RecurringType:          &t.RecurringType,
		CustomRecurringPattern: &t.CustomRecurringPattern,
		Subtasks:               &subtasks,
		Completed:              &t.Completed,
	}
}

// CompletionPatch only flips the completed flag.
func CompletionPatch(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}

// Apply merges p into t. The result is not validated.
func (t *Task) Apply(p TaskPatch) error {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		d, err := ParseDate(*p.DueDate)
		if err != nil {
			return err
		}
		if d.IsZero() {
			t.DueDate = nil
		} else {
			t.DueDate = &d
		}
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.Section != nil {
		t.Section = *p.Section
	}
	if p.Labels != nil {
		t.Labels = slices.Clone(*p.Labels)
	}
	if p.Recurring != nil {
		t.Recurring = *p.Recurring
	}
	if p.RecurringType != nil {
		t.RecurringType = *p.RecurringType
	}
	if p.CustomRecurringPattern != nil {
		t.CustomRecurringPattern = *p.CustomRecurringPattern
	}
	if p.Subtasks != nil {
		t.Subtasks = slices.Clone(*p.Subtasks)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.Normalize()
	return nil
}
