package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/vykazy/internal/app"
	"github.com/MrJamesThe3rd/vykazy/internal/config"
	vykazyHttp "github.com/MrJamesThe3rd/vykazy/internal/http"
	backupHandler "github.com/MrJamesThe3rd/vykazy/internal/http/backup"
	debtHandler "github.com/MrJamesThe3rd/vykazy/internal/http/debt"
	exportHandler "github.com/MrJamesThe3rd/vykazy/internal/http/export"
	financeHandler "github.com/MrJamesThe3rd/vykazy/internal/http/finance"
	importHandler "github.com/MrJamesThe3rd/vykazy/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/vykazy/internal/http/matching"
	settingsHandler "github.com/MrJamesThe3rd/vykazy/internal/http/settings"
	timerHandler "github.com/MrJamesThe3rd/vykazy/internal/http/timer"
	worklogHandler "github.com/MrJamesThe3rd/vykazy/internal/http/worklog"
	"github.com/MrJamesThe3rd/vykazy/internal/log"
	"github.com/MrJamesThe3rd/vykazy/internal/timer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	slog.SetDefault(log.New(os.Stderr, log.Config{Level: level, Component: "api"}))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	people, err := config.LoadPeople(cfg.App.PeopleFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := app.New(ctx, store, people, loc, timer.WithTickInterval(cfg.App.TickInterval))
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}

	router := vykazyHttp.New(vykazyHttp.Handlers{
		WorkLog:  worklogHandler.NewHandler(a.WorkLog),
		Timer:    timerHandler.NewHandler(ctx, a.Timer),
		Finance:  financeHandler.NewHandler(a.Finance),
		Debts:    debtHandler.NewHandler(a.Debts, a.Location),
		Import:   importHandler.NewHandler(a.Importer, a.Finance),
		Matching: matchingHandler.NewHandler(a.Matching),
		Export:   exportHandler.NewHandler(a.Export, a.WorkLog, a.Finance, a.Debts, a.Deductions),
		Backup:   backupHandler.NewHandler(a.Backup),
		Settings: settingsHandler.NewHandler(a.Settings),
	}, cfg.HTTP.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "backend", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
