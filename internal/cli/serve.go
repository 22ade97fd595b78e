package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskmanager/internal/config"
	"taskmanager/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the static frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().String("static", "", "directory with the built frontend")
	cmd.Flags().String("env", "", "environment name; development exposes panic details")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.Store.Driver == config.DriverRemote {
		return errors.New("serve needs a local store driver, not remote")
	}

	logger := a.logger
	logger.Info("taskmanager starting",
		slog.String("version", appVersion),
		slog.String("driver", a.cfg.Store.Driver),
		slog.String("environment", a.cfg.Environment))

	store, err := a.store(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(store, logger, server.Options{
		StaticDir:   a.cfg.Server.StaticDir,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		Development: a.cfg.Development(),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
