package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskmanager/internal/snapshot"
)

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write every task, project and label to a YAML or JSON file",
		Long:  "Write every task, project and label to file, or to stdout when no file is given. The format follows the file extension unless --format is set.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := snapshot.Export(cmd.Context(), store, time.Now())
			if err != nil {
				return err
			}

			f := snapshot.Format(format)
			if len(args) == 0 {
				if f == "" {
					f = snapshot.FormatYAML
				}
				return snapshot.Encode(cmd.OutOrStdout(), snap, f)
			}

			if f == "" {
				f = snapshot.FormatFor(args[0])
			}
			file, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := snapshot.Encode(file, snap, f); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(snap.Tasks), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "yaml or json")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add the content of an exported file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			f := snapshot.Format(format)
			if f == "" {
				f = snapshot.FormatFor(args[0])
			}
			snap, err := snapshot.Decode(file, f)
			if err != nil {
				return err
			}

			store, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			res, err := snapshot.Import(cmd.Context(), store, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks, %d projects, %d labels\n", res.Tasks, res.Projects, res.Labels)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "yaml or json; defaults to the file extension")
	return cmd
}
