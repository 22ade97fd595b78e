package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskmanager/internal/models"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	doneStyle      = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

type column struct {
	title string
	width int
}

var taskColumns = []column{
	{"", 4},
	{"ID", 10},
	{"PRIORITY", 10},
	{"DUE", 12},
	{"TITLE", 32},
	{"PROJECT", 14},
	{"LABELS", 24},
}

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// cell pads s to width, truncating it so one blank column always remains.
func cell(s string, width int, style lipgloss.Style) string {
	if r := []rune(s); len(r) >= width {
		s = string(r[:max(width-2, 0)]) + "…"
	}
	return style.Width(width).Render(s)
}

func renderTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	var header strings.Builder
	for _, c := range taskColumns {
		header.WriteString(cell(c.title, c.width, headerStyle))
	}
	fmt.Fprintln(w, strings.TrimRight(header.String(), " "))

	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Time.Format(models.DateLayout)
		}
		titleStyle := lipgloss.NewStyle()
		if t.Completed {
			titleStyle = doneStyle
		}
		title := t.Title
		if n := len(t.Subtasks); n > 0 {
			done := 0
			for _, st := range t.Subtasks {
				if st.Completed {
					done++
				}
			}
			title = fmt.Sprintf("%s (%d/%d)", title, done, n)
		}

		row := []string{
			cell(check, taskColumns[0].width, lipgloss.NewStyle()),
			cell(shortID(t.ID), taskColumns[1].width, lipgloss.NewStyle()),
			cell(string(t.Priority), taskColumns[2].width, priorityStyles[t.Priority]),
			cell(due, taskColumns[3].width, lipgloss.NewStyle()),
			cell(title, taskColumns[4].width, titleStyle),
			cell(t.Project, taskColumns[5].width, lipgloss.NewStyle()),
			cell(strings.Join(t.Labels, ", "), taskColumns[6].width, lipgloss.NewStyle()),
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(row, ""), " "))
	}
}

func renderTask(w io.Writer, t models.Task) {
	label := headerStyle.Render
	fmt.Fprintf(w, "%s %s\n", label("ID:"), t.ID)
	fmt.Fprintf(w, "%s %s\n", label("Title:"), t.Title)
	if t.Description != "" {
		fmt.Fprintf(w, "%s %s\n", label("Description:"), t.Description)
	}
	fmt.Fprintf(w, "%s %s\n", label("Priority:"), priorityStyles[t.Priority].Render(string(t.Priority)))
	if t.DueDate != nil {
		fmt.Fprintf(w, "%s %s\n", label("Due:"), t.DueDate.String())
	}
	if t.Project != "" {
		fmt.Fprintf(w, "%s %s\n", label("Project:"), t.Project)
	}
	if t.Section != "" {
		fmt.Fprintf(w, "%s %s\n", label("Section:"), t.Section)
	}
	if len(t.Labels) > 0 {
		fmt.Fprintf(w, "%s %s\n", label("Labels:"), strings.Join(t.Labels, ", "))
	}
	if t.Recurring {
		rec := string(t.RecurringType)
		if t.RecurringType == models.RecurringCustom && t.CustomRecurringPattern != "" {
			rec += " (" + t.CustomRecurringPattern + ")"
		}
		fmt.Fprintf(w, "%s %s\n", label("Repeats:"), rec)
	}
	for i, st := range t.Subtasks {
		mark := "[ ]"
		if st.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, mark, st.Text)
	}
	fmt.Fprintf(w, "%s %s\n", label("Created:"), t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if t.Completed {
		fmt.Fprintln(w, doneStyle.Render("completed"))
	}
}

func renderNames(w io.Writer, kind string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(w, "No %s.\n", kind)
		return
	}
	fmt.Fprintln(w, headerStyle.Render(strings.ToUpper(kind[:1])+kind[1:]))
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}
}
