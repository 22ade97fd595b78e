// Package form converts between a task and the flat state edited before a save.
package form

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"taskmanager/internal/models"
)

// SubtaskRow is one editable checklist line.
type SubtaskRow struct {
	Text      string
	Completed bool
}

// State is the editable projection of a task. Labels are comma separated
// and DueDate uses the models.Date text form.
type State struct {
	ID                     string
	Title                  string
	Description            string
	DueDate                string
	Priority               string
	Project                string
	Section                string
	Labels                 string
	Recurring              bool
	RecurringType          string
	CustomRecurringPattern string
	Subtasks               []SubtaskRow

	// Not editable; carried so that an edit keeps them.
	CreatedAt time.Time
	Completed bool
}

// Blank is the state for a task that does not exist yet.
func Blank() State {
	return State{
		Priority: string(models.PriorityMedium),
		Subtasks: []SubtaskRow{},
	}
}

// IsEdit reports whether saving s updates an existing task.
func (s State) IsEdit() bool {
	return s.ID != ""
}

// ToFormState projects t into an editable state. A nil task yields Blank().
func ToFormState(t *models.Task) State {
	if t == nil {
		return Blank()
	}
	s := State{
		ID:                     t.ID,
		Title:                  t.Title,
		Description:            t.Description,
		Priority:               string(t.Priority),
		Project:                t.Project,
		Section:                t.Section,
		Labels:                 JoinLabels(t.Labels),
		Recurring:              t.Recurring,
		RecurringType:          string(t.RecurringType),
		CustomRecurringPattern: t.CustomRecurringPattern,
		Subtasks:               make([]SubtaskRow, 0, len(t.Subtasks)),
		CreatedAt:              t.CreatedAt,
		Completed:              t.Completed,
	}
	if s.Priority == "" {
		s.Priority = string(models.PriorityMedium)
	}
	if t.DueDate != nil {
		s.DueDate = t.DueDate.String()
	}
	for _, st := range t.Subtasks {
		s.Subtasks = append(s.Subtasks, SubtaskRow{Text: st.Text, Completed: st.Completed})
	}
	return s
}

// FromFormState builds the task to save. New tasks are stamped with now and
// start incomplete; edits keep the CreatedAt and Completed carried in s.
func FromFormState(s State, now time.Time) (models.Task, error) {
	if strings.TrimSpace(s.Title) == "" {
		return models.Task{}, models.ErrTitleRequired
	}
	priority, err := models.ParsePriority(s.Priority)
	if err != nil {
		return models.Task{}, err
	}
	recurringType, err := models.ParseRecurringType(s.RecurringType)
	if err != nil {
		return models.Task{}, err
	}
	due, err := models.ParseDate(s.DueDate)
	if err != nil {
		return models.Task{}, fmt.Errorf("due date: %w", err)
	}

	t := models.Task{
		ID:                     s.ID,
		Title:                  s.Title,
		Description:            s.Description,
		Priority:               priority,
		Project:                s.Project,
		Section:                s.Section,
		Labels:                 SplitLabels(s.Labels),
		Recurring:              s.Recurring,
		RecurringType:          recurringType,
		CustomRecurringPattern: s.CustomRecurringPattern,
		Subtasks:               make([]models.Subtask, 0, len(s.Subtasks)),
		CreatedAt:              now,
	}
	if !due.IsZero() {
		t.DueDate = &due
	}
	for _, row := range s.Subtasks {
		t.Subtasks = append(t.Subtasks, models.Subtask{Text: row.Text, Completed: row.Completed})
	}
	if s.IsEdit() {
		t.Completed = s.Completed
		if !s.CreatedAt.IsZero() {
			t.CreatedAt = s.CreatedAt
		}
	}
	return t, nil
}

// AddSubtask appends a row for text. Blank text is ignored.
func (s *State) AddSubtask(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	s.Subtasks = append(s.Subtasks, SubtaskRow{Text: text})
	return true
}

// RemoveSubtask drops the row at i.
func (s *State) RemoveSubtask(i int) bool {
	if i < 0 || i >= len(s.Subtasks) {
		return false
	}
	s.Subtasks = slices.Delete(s.Subtasks, i, i+1)
	return true
}

// SplitLabels parses a comma separated list, trimming names and dropping empty ones.
func SplitLabels(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// JoinLabels renders labels the way SplitLabels reads them back.
func JoinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}
