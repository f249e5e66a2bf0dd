// Package config loads runtime settings from the environment and the people
// file from disk.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	App struct {
		Name         string        `envconfig:"APP_NAME" default:"Výkazy"`
		Timezone     string        `envconfig:"APP_TIMEZONE" default:"Europe/Prague"`
		TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
		PeopleFile   string        `envconfig:"PEOPLE_FILE"`
	}

	HTTP struct {
		Port           int      `envconfig:"HTTP_PORT" default:"8080"`
		AllowedOrigins []string `envconfig:"HTTP_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Log struct {
		Level string `envconfig:"LOG_LEVEL" default:"info"`
		// File receives the logs; the terminal UI owns stdout.
		File string `envconfig:"LOG_FILE"`
	}

	Storage struct {
		Backend    string `envconfig:"STORAGE_BACKEND" default:"sqlite"`
		SQLitePath string `envconfig:"SQLITE_PATH"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"vykazy"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Location resolves App.Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.App.Timezone, err)
	}

	return loc, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	backends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	if !slices.Contains(backends, c.Storage.Backend) {
		problems = append(problems, fmt.Sprintf("invalid storage backend %q: must be one of %v", c.Storage.Backend, backends))
	}

	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		problems = append(problems, "SQLite path cannot be empty when using the sqlite backend")
	}

	if c.Storage.Backend == BackendPostgres {
		if c.DB.Host == "" || c.DB.Name == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required when using the postgres backend")
		}

		if c.DB.Port < 1 || c.DB.Port > 65535 {
			problems = append(problems, fmt.Sprintf("invalid DB port %d: must be between 1 and 65535", c.DB.Port))
		}
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.HTTP.Port))
	}

	if c.App.TickInterval <= 0 {
		problems = append(problems, fmt.Sprintf("invalid tick interval %s: must be positive", c.App.TickInterval))
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid time zone %q", c.App.Timezone))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.App.PeopleFile == "" {
		cfg.App.PeopleFile = DefaultPeoplePath()
	}

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultDBPath()
	}

	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(XDGDataHome(), appDir, "vykazy.log")
	}

	return &cfg, nil
}
