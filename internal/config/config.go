// Package config loads settings from taskmanager.yaml, TASKMANAGER_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TASKMANAGER"
	FileName  = "taskmanager"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
	DriverRemote = "remote"
)

var Drivers = []string{DriverSQLite, DriverFile, DriverRedis, DriverMemory, DriverRemote}

type Config struct {
	Environment string       `mapstructure:"environment"`
	Server      ServerConfig `mapstructure:"server"`
	Store       StoreConfig  `mapstructure:"store"`
	Log         LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	StaticDir   string   `mapstructure:"static_dir"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	DataDir       string `mapstructure:"data_dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
	RemoteURL     string `mapstructure:"remote_url"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Development reports whether error responses may include internals.
func (c Config) Development() bool {
	return strings.EqualFold(c.Environment, "development")
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "web/dist")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://localhost:5500",
		"http://127.0.0.1:5500",
	})

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "data/taskmanager.db")
	v.SetDefault("store.data_dir", "data")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", "taskmanager:")
	v.SetDefault("store.remote_url", "http://localhost:8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// New returns a viper instance with defaults, env binding and search paths.
// An explicit file overrides the search paths.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v
	}
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "taskmanager"))
	}
	return v
}

// Load reads the config file if there is one and decodes v into a Config.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !slices.Contains(Drivers, c.Store.Driver) {
		return fmt.Errorf("store.driver %q: want one of %s", c.Store.Driver, strings.Join(Drivers, ", "))
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be set for the sqlite driver")
		}
	case DriverFile:
		if c.Store.DataDir == "" {
			return errors.New("store.data_dir must be set for the file driver")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr must be set for the redis driver")
		}
	case DriverRemote:
		if c.Store.RemoteURL == "" {
			return errors.New("store.remote_url must be set for the remote driver")
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("log.format %q: want text, json or pretty", c.Log.Format)
	}
	return nil
}
