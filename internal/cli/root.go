// Package cli implements the taskmanager command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskmanager/internal/config"
	"taskmanager/internal/logging"
	"taskmanager/internal/storage"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// app is the state shared by every command of one invocation.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        config.Config
	logger     *slog.Logger
	closers    []io.Closer
}

// flagKeys binds command-line flags to config keys.
var flagKeys = map[string]string{
	"driver":     "store.driver",
	"db":         "store.sqlite_path",
	"data-dir":   "store.data_dir",
	"redis-addr": "store.redis_addr",
	"server":     "store.remote_url",
	"log-level":  "log.level",
	"log-format": "log.format",
	"addr":       "server.addr",
	"static":     "server.static_dir",
	"env":        "environment",
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskmanager",
		Short:         "Personal task manager",
		Long:          "taskmanager keeps tasks, projects and labels, serves them over HTTP and edits them from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./taskmanager.yaml or ~/.config/taskmanager/taskmanager.yaml)")
	pf.String("driver", "", "store driver: sqlite, file, redis, memory or remote")
	pf.String("db", "", "path to the sqlite database file")
	pf.String("data-dir", "", "directory for the file driver")
	pf.String("redis-addr", "", "redis address for the redis driver")
	pf.String("server", "", "server url for the remote driver")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text, json or pretty")

	root.AddCommand(
		newServeCmd(a),
		newTasksCmd(a),
		newRegistryCmd(a, projectRegistry),
		newRegistryCmd(a, labelRegistry),
		newExportCmd(a),
		newImportCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.New(a.configFile)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logOut := cmd.ErrOrStderr()
	if cmd.Name() == "serve" {
		logOut = cmd.OutOrStdout()
	}
	logger, closer, err := logging.New(logOut, logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

func (a *app) store(ctx context.Context) (storage.Store, error) {
	s, err := openStore(ctx, a.cfg.Store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	a.closers = append(a.closers, s)
	return s, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskmanager %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

// Execute runs the root command.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}
