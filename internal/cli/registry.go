package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskmanager/internal/controller"
)

// registry describes one of the append-only name lists.
type registry struct {
	use   string
	alias string
	kind  string
	names func(*controller.Controller) []string
	add   func(*controller.Controller, context.Context, string) (bool, error)
}

var projectRegistry = registry{
	use:   "projects",
	alias: "project",
	kind:  "projects",
	names: func(c *controller.Controller) []string {
		var out []string
		for _, p := range c.Projects() {
			out = append(out, p.Name)
		}
		return out
	},
	add: (*controller.Controller).AddProject,
}

var labelRegistry = registry{
	use:   "labels",
	alias: "label",
	kind:  "labels",
	names: func(c *controller.Controller) []string {
		var out []string
		for _, l := range c.Labels() {
			out = append(out, l.Name)
		}
		return out
	},
	add: (*controller.Controller).AddLabel,
}

func newRegistryCmd(a *app, r registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:     r.use,
		Aliases: []string{r.alias},
		Short:   fmt.Sprintf("List and add %s", r.kind),
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s", r.kind),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			renderNames(cmd.OutOrStdout(), r.kind, r.names(ctl))
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Register a new name in %s", r.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			added, err := r.add(ctl, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to add")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", args[0], r.kind)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}
