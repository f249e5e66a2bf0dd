// Package app assembles the ledger services on top of the configured storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/vykazy/internal/backup"
	"github.com/MrJamesThe3rd/vykazy/internal/config"
	"github.com/MrJamesThe3rd/vykazy/internal/database"
	"github.com/MrJamesThe3rd/vykazy/internal/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/deduction"
	"github.com/MrJamesThe3rd/vykazy/internal/export"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/importer"
	"github.com/MrJamesThe3rd/vykazy/internal/matching"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/memory"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/postgres"
	"github.com/MrJamesThe3rd/vykazy/internal/storage/sqlite"
	"github.com/MrJamesThe3rd/vykazy/internal/timer"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

// Store is a storage backend that holds resources until closed.
type Store interface {
	storage.Storage
	io.Closer
}

// OpenStore opens the backend selected by cfg.Storage.Backend.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}

		return store, nil
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		store, err := postgres.New(ctx, db)
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}

		return store, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// App bundles every service of the ledger.
type App struct {
	Location *time.Location

	WorkLog    *worklog.Service
	Finance    *finance.Service
	Debts      *debt.Service
	Settings   *settings.Service
	Deductions *deduction.Calculator
	Timer      *timer.Timer
	Backup     *backup.Service
	Export     *export.Service
	Importer   *importer.Service
	Matching   *matching.Service
}

// New builds the services on store, writes first-run defaults and loads every
// collection.
func New(ctx context.Context, store storage.Storage, people config.People, loc *time.Location, timerOpts ...timer.Option) (*App, error) {
	a := &App{
		Location:   loc,
		WorkLog:    worklog.NewService(store, people.Rates, loc),
		Finance:    finance.NewService(store),
		Debts:      debt.NewService(store),
		Settings:   settings.NewService(store),
		Deductions: deduction.NewCalculator(people.Deductions, loc),
		Export:     export.NewService(loc),
	}

	a.Timer = timer.New(a.WorkLog, people.Rates, timerOpts...)
	a.Matching = matching.NewService(a.Finance)
	a.Importer = importer.NewService(a.Finance, importer.WithCategorizer(a.Matching))
	a.Backup = backup.NewService(store, a.WorkLog, a.Finance, a.Debts, a.Settings)

	if err := storage.Seed(ctx, store); err != nil {
		return nil, fmt.Errorf("seeding storage: %w", err)
	}

	if err := a.Reload(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// Reload refreshes every store from storage concurrently.
func (a *App) Reload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	stores := map[string]backup.Reloader{
		"work log": a.WorkLog,
		"finance":  a.Finance,
		"debts":    a.Debts,
		"settings": a.Settings,
	}

	for name, store := range stores {
		g.Go(func() error {
			if err := store.Reload(ctx); err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}

			slog.DebugContext(ctx, "store loaded", "store", name)

			return nil
		})
	}

	return g.Wait()
}
