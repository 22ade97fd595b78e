package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"taskmanager/internal/models"
)

var now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestSplitLabels(t *testing.T) {
	assert.Equal(t, []string{}, SplitLabels(""))
	assert.Equal(t, []string{}, SplitLabels(" , ,"))
	assert.Equal(t, []string{"Important", "Quick Task"}, SplitLabels(" Important ,Quick Task,, "))
	assert.Equal(t, []string{"a", "a"}, SplitLabels("a,a"))
}

func TestToFormStateBlank(t *testing.T) {
	s := ToFormState(nil)
	assert.Equal(t, Blank(), s)
	assert.Equal(t, "medium", s.Priority)
	assert.False(t, s.IsEdit())
}

func TestToFormState(t *testing.T) {
	due, err := models.ParseDate("2026-10-20")
	require.NoError(t, err)
	task := models.Task{
		ID:        "t1",
		Title:     "Pay rent",
		DueDate:   &due,
		Priority:  models.PriorityHigh,
		Labels:    []string{"Urgent", "Quick Task"},
		Subtasks:  []models.Subtask{{Text: "log in"}, {Text: "transfer", Completed: true}},
		CreatedAt: now,
		Completed: true,
	}

	s := ToFormState(&task)
	assert.Equal(t, "t1", s.ID)
	assert.Equal(t, "2026-10-20", s.DueDate)
	assert.Equal(t, "Urgent, Quick Task", s.Labels)
	assert.Equal(t, []SubtaskRow{{Text: "log in"}, {Text: "transfer", Completed: true}}, s.Subtasks)
	assert.True(t, s.Completed)
}

func TestFromFormStateNewTask(t *testing.T) {
	s := Blank()
	s.Title = "Buy milk"
	s.Labels = "Quick Task, , Shopping "
	s.DueDate = "2026-10-18"
	require.True(t, s.AddSubtask("  oat  "))
	require.False(t, s.AddSubtask("   "))

	task, err := FromFormState(s, now)
	require.NoError(t, err)
	assert.Empty(t, task.ID)
	assert.Equal(t, []string{"Quick Task", "Shopping"}, task.Labels)
	assert.Equal(t, []models.Subtask{{Text: "oat"}}, task.Subtasks)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, now, task.CreatedAt)
	assert.False(t, task.Completed)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-10-18", task.DueDate.String())
}

func TestFromFormStateEditKeepsCreationAndCompletion(t *testing.T) {
	created := now.Add(-72 * time.Hour)
	s := ToFormState(&models.Task{ID: "t9", Title: "Report", CreatedAt: created, Completed: true})
	s.Title = "Quarterly report"

	task, err := FromFormState(s, now)
	require.NoError(t, err)
	assert.Equal(t, "t9", task.ID)
	assert.Equal(t, created, task.CreatedAt)
	assert.True(t, task.Completed)
}

func TestFromFormStateErrors(t *testing.T) {
	s := Blank()
	_, err := FromFormState(s, now)
	assert.ErrorIs(t, err, models.ErrTitleRequired)

	s.Title = "x"
	s.Priority = "asap"
	_, err = FromFormState(s, now)
	assert.ErrorIs(t, err, models.ErrInvalidPriority)

	s.Priority = "low"
	s.RecurringType = "hourly"
	_, err = FromFormState(s, now)
	assert.ErrorIs(t, err, models.ErrInvalidRecurringType)

	s.RecurringType = ""
	s.DueDate = "next week"
	_, err = FromFormState(s, now)
	assert.Error(t, err)
}

func TestRemoveSubtask(t *testing.T) {
	s := Blank()
	s.AddSubtask("a")
	s.AddSubtask("b")
	s.AddSubtask("c")

	assert.True(t, s.RemoveSubtask(1))
	assert.Equal(t, []SubtaskRow{{Text: "a"}, {Text: "c"}}, s.Subtasks)
	assert.False(t, s.RemoveSubtask(5))
	assert.False(t, s.RemoveSubtask(-1))
}

var labelGen = rapid.SampledFrom([]string{"Important", "Urgent", "Quick Task", "Home"})

func genState(rt *rapid.T) State {
	s := State{
		Title:                  rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,20}`).Draw(rt, "title"),
		Description:            rapid.StringMatching(`[a-z ]{0,30}`).Draw(rt, "description"),
		Priority:               string(rapid.SampledFrom(models.Priorities).Draw(rt, "priority")),
		Project:                rapid.SampledFrom([]string{"", "Work", "Personal"}).Draw(rt, "project"),
		Section:                rapid.StringMatching(`[a-z]{0,8}`).Draw(rt, "section"),
		Labels:                 JoinLabels(rapid.SliceOfN(labelGen, 0, 4).Draw(rt, "labels")),
		Recurring:              rapid.Bool().Draw(rt, "recurring"),
		RecurringType:          string(rapid.SampledFrom(append([]models.RecurringType{""}, models.RecurringTypes...)).Draw(rt, "recurringType")),
		CustomRecurringPattern: rapid.StringMatching(`[a-z ]{0,10}`).Draw(rt, "pattern"),
		Subtasks:               []SubtaskRow{},
	}
	if rapid.Bool().Draw(rt, "hasDue") {
		d := time.Date(2026, time.Month(rapid.IntRange(1, 12).Draw(rt, "month")), rapid.IntRange(1, 28).Draw(rt, "day"), 0, 0, 0, 0, time.Local)
		s.DueDate = d.Format(models.DateLayout)
	}
	for i, n := 0, rapid.IntRange(0, 4).Draw(rt, "subtasks"); i < n; i++ {
		s.Subtasks = append(s.Subtasks, SubtaskRow{
			Text:      rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "subtask"),
			Completed: rapid.Bool().Draw(rt, "subtaskDone"),
		})
	}
	return s
}

// Saving a state and re-opening the result shows the same values, apart from the timestamp.
func TestPropertyStateRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := genState(rt)
		task, err := FromFormState(s, now)
		if err != nil {
			rt.Fatalf("FromFormState: %v", err)
		}
		back := ToFormState(&task)
		back.CreatedAt = time.Time{}
		if !assert.ObjectsAreEqual(s, back) {
			rt.Fatalf("round trip changed state:\n got %#v\nwant %#v", back, s)
		}
	})
}

// Opening a task and saving it again preserves every user-visible field.
func TestPropertyTaskRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := genState(rt)
		orig, err := FromFormState(s, now.Add(-time.Hour))
		if err != nil {
			rt.Fatalf("FromFormState: %v", err)
		}
		orig.ID = "t1"

		saved, err := FromFormState(ToFormState(&orig), now)
		if err != nil {
			rt.Fatalf("FromFormState: %v", err)
		}
		if !assert.ObjectsAreEqual(orig, saved) {
			rt.Fatalf("round trip changed task:\n got %#v\nwant %#v", saved, orig)
		}
	})
}
