package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"taskmanager/internal/controller"
	"taskmanager/internal/form"
	"taskmanager/internal/query"
	"taskmanager/internal/storage"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and edit tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksShowCmd(a),
		newTasksAddCmd(a),
		newTasksEditCmd(a),
		newTasksToggleCmd(a, "done", true),
		newTasksToggleCmd(a, "undone", false),
		newTasksDeleteCmd(a),
	)
	return cmd
}

func (a *app) controller(ctx context.Context, confirm controller.Confirmer) (*controller.Controller, error) {
	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	ctl := controller.New(store, confirm, controller.WithLogger(a.logger))
	if err := ctl.Load(ctx); err != nil {
		return nil, err
	}
	return ctl, nil
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(ctl *controller.Controller, arg string) (string, error) {
	var matches []string
	for _, t := range ctl.Tasks() {
		if t.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("task %s: %w", arg, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task id prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func newTasksListCmd(a *app) *cobra.Command {
	var (
		view, sortKey, search, project, label string
		asJSON                                bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks of a view",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			switch {
			case project != "":
				view = query.ProjectView(project)
			case label != "":
				view = query.LabelView(label)
			}
			tasks := ctl.List(view, sortKey, search)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			renderTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&view, "view", query.ViewAll, "all, today, upcoming, important or completed")
	f.StringVar(&sortKey, "sort", "", "dueDate, priority, createdAt or title")
	f.StringVarP(&search, "search", "q", "", "match title, description or labels")
	f.StringVar(&project, "project", "", "only tasks of this project")
	f.StringVar(&label, "label", "", "only tasks with this label")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTasksShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			id, err := resolveID(ctl, args[0])
			if err != nil {
				return err
			}
			t, _ := ctl.Task(id)
			renderTask(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

// taskFlags are the editable fields; only flags given on the command line
// change the form state.
type taskFlags struct {
	title          string
	description    string
	due            string
	priority       string
	project        string
	section        string
	labels         string
	recurring      bool
	recurringType  string
	pattern        string
	subtasks       []string
	removeSubtasks []int
	clearSubtasks  bool
}

func (tf *taskFlags) register(cmd *cobra.Command, edit bool) {
	f := cmd.Flags()
	if edit {
		f.StringVar(&tf.title, "title", "", "new title")
		f.IntSliceVar(&tf.removeSubtasks, "remove-subtask", nil, "remove subtask by its 1-based number")
		f.BoolVar(&tf.clearSubtasks, "clear-subtasks", false, "remove every subtask")
	}
	f.StringVarP(&tf.description, "description", "d", "", "description")
	f.StringVar(&tf.due, "due", "", "due date, YYYY-MM-DD or RFC 3339; empty clears it")
	f.StringVarP(&tf.priority, "priority", "p", "", "low, medium, high or urgent")
	f.StringVar(&tf.project, "project", "", "project name")
	f.StringVar(&tf.section, "section", "", "section")
	f.StringVarP(&tf.labels, "labels", "l", "", "comma separated label names")
	f.BoolVar(&tf.recurring, "recurring", false, "repeat the task")
	f.StringVar(&tf.recurringType, "recurring-type", "", "daily, weekly, monthly or custom")
	f.StringVar(&tf.pattern, "pattern", "", "custom recurring pattern")
	f.StringArrayVar(&tf.subtasks, "subtask", nil, "add a subtask; repeatable")
}

func (tf *taskFlags) apply(cmd *cobra.Command, s *form.State) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		s.Title = tf.title
	}
	if changed("description") {
		s.Description = tf.description
	}
	if changed("due") {
		s.DueDate = tf.due
	}
	if changed("priority") {
		s.Priority = tf.priority
	}
	if changed("project") {
		s.Project = tf.project
	}
	if changed("section") {
		s.Section = tf.section
	}
	if changed("labels") {
		s.Labels = tf.labels
	}
	if changed("recurring") {
		s.Recurring = tf.recurring
	}
	if changed("recurring-type") {
		s.RecurringType = tf.recurringType
	}
	if changed("pattern") {
		s.CustomRecurringPattern = tf.pattern
	}
	if tf.clearSubtasks {
		s.Subtasks = []form.SubtaskRow{}
	}
	remove := slices.Clone(tf.removeSubtasks)
	slices.Sort(remove)
	for _, n := range slices.Backward(slices.Compact(remove)) {
		if !s.RemoveSubtask(n - 1) {
			return fmt.Errorf("no subtask number %d", n)
		}
	}
	for _, text := range tf.subtasks {
		s.AddSubtask(text)
	}
	return nil
}

func newTasksAddCmd(a *app) *cobra.Command {
	var tf taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			state := form.Blank()
			state.Title = strings.Join(args, " ")
			if err := tf.apply(cmd, &state); err != nil {
				return err
			}
			t, err := ctl.Save(cmd.Context(), state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", t.ID, t.Title)
			return nil
		},
	}
	tf.register(cmd, false)
	return cmd
}

func newTasksEditCmd(a *app) *cobra.Command {
	var tf taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			id, err := resolveID(ctl, args[0])
			if err != nil {
				return err
			}
			state, err := ctl.Edit(id)
			if err != nil {
				return err
			}
			if err := tf.apply(cmd, &state); err != nil {
				return err
			}
			t, err := ctl.Save(cmd.Context(), state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", t.ID, t.Title)
			return nil
		},
	}
	tf.register(cmd, true)
	return cmd
}

func newTasksToggleCmd(a *app, use string, completed bool) *cobra.Command {
	short := "Mark a task completed"
	if !completed {
		short = "Mark a task not completed"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			id, err := resolveID(ctl, args[0])
			if err != nil {
				return err
			}
			t, err := ctl.ToggleCompletion(cmd.Context(), id, completed)
			if err != nil {
				return err
			}
			state := "open"
			if t.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is %s\n", shortID(t.ID), state)
			return nil
		},
	}
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm controller.Confirmer = promptConfirmer{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			if yes {
				confirm = controller.ConfirmFunc(func(string) bool { return true })
			}
			ctl, err := a.controller(cmd.Context(), confirm)
			if err != nil {
				return err
			}
			id, err := resolveID(ctl, args[0])
			if err != nil {
				return err
			}
			deleted, err := ctl.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", shortID(id))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Kept task")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// promptConfirmer asks on out and reads a y/yes answer from in.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
