package cli

import (
	"context"
	"fmt"
	"log/slog"

	"taskmanager/internal/client"
	"taskmanager/internal/config"
	"taskmanager/internal/storage"
	"taskmanager/internal/storage/kv"
	"taskmanager/internal/storage/sqlite"
)

// openStore builds the storage.Store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath, logger)
	case config.DriverFile:
		backend, err := kv.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return openKV(ctx, backend, logger)
	case config.DriverRedis:
		backend, err := kv.NewRedisBackend(ctx, kv.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return openKV(ctx, backend, logger)
	case config.DriverMemory:
		return kv.Open(ctx, kv.NewMemoryBackend(), logger)
	case config.DriverRemote:
		return client.New(cfg.RemoteURL, nil)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openKV(ctx context.Context, backend kv.Backend, logger *slog.Logger) (storage.Store, error) {
	s, err := kv.Open(ctx, backend, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return s, nil
}
