// Package query derives filtered, searched and sorted task sequences.
// Every function returns a new slice and leaves its input untouched.
package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskmanager/internal/models"
)

// Named views.
const (
	ViewAll       = "all"
	ViewToday     = "today"
	ViewUpcoming  = "upcoming"
	ViewImportant = "important"
	ViewCompleted = "completed"

	projectViewPrefix = "project:"
	labelViewPrefix   = "label:"
)

// Sort keys.
const (
	SortDueDate   = "dueDate"
	SortPriority  = "priority"
	SortCreatedAt = "createdAt"
	SortTitle     = "title"
)

// ProjectView names the view holding the tasks of one project.
func ProjectView(name string) string {
	return projectViewPrefix + name
}

// LabelView names the view holding the tasks tagged with one label.
func LabelView(name string) string {
	return labelViewPrefix + name
}

// Options selects a view, a search query and a sort key.
type Options struct {
	View   string
	Search string
	Sort   string
}

// Apply runs ByView, then Search, then SortBy.
func Apply(tasks []models.Task, opts Options, now time.Time) []models.Task {
	out := ByView(tasks, opts.View, now)
	out = Search(out, opts.Search)
	return SortBy(out, opts.Sort)
}

// ByView keeps the tasks belonging to view. Unknown views keep everything.
func ByView(tasks []models.Task, view string, now time.Time) []models.Task {
	switch {
	case view == ViewToday:
		return filter(tasks, func(t models.Task) bool {
			return t.DueDate != nil && sameDay(t.DueDate.Time, now)
		})
	case view == ViewUpcoming:
		return filter(tasks, func(t models.Task) bool {
			return t.DueDate != nil && t.DueDate.After(now)
		})
	case view == ViewImportant:
		return filter(tasks, func(t models.Task) bool {
			return t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent
		})
	case view == ViewCompleted:
		return filter(tasks, func(t models.Task) bool { return t.Completed })
	case strings.HasPrefix(view, projectViewPrefix):
		name := strings.TrimPrefix(view, projectViewPrefix)
		return filter(tasks, func(t models.Task) bool { return t.Project == name })
	case strings.HasPrefix(view, labelViewPrefix):
		name := strings.TrimPrefix(view, labelViewPrefix)
		return filter(tasks, func(t models.Task) bool { return t.HasLabel(name) })
	default:
		return slices.Clone(tasks)
	}
}

// Search matches q case-insensitively against title, description and labels.
// A blank query matches every task.
func Search(tasks []models.Task, q string) []models.Task {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return slices.Clone(tasks)
	}
	return filter(tasks, func(t models.Task) bool {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			return true
		}
		return slices.ContainsFunc(t.Labels, func(l string) bool {
			return strings.Contains(strings.ToLower(l), q)
		})
	})
}

// SortBy returns a stably sorted copy. Unknown keys keep input order.
func SortBy(tasks []models.Task, key string) []models.Task {
	out := slices.Clone(tasks)
	switch key {
	case SortDueDate:
		slices.SortStableFunc(out, compareDueDate)
	case SortPriority:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	case SortCreatedAt:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortTitle:
		// collate.Collator keeps scratch buffers, so each sort gets its own.
		c := collate.New(language.Und)
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return c.CompareString(a.Title, b.Title)
		})
	}
	return out
}

// compareDueDate puts tasks without a due date after every dated task.
func compareDueDate(a, b models.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(b.DueDate.Time)
}

func sameDay(t, now time.Time) bool {
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
