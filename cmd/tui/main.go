package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/vykazy/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/vykazy/internal/app"
	"github.com/MrJamesThe3rd/vykazy/internal/config"
	"github.com/MrJamesThe3rd/vykazy/internal/log"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/timer"
)

type model struct {
	app       *app.App
	people    config.People
	name      string
	exportDir string
	ticks     <-chan timer.Snapshot

	currentView View
	width       int
	height      int

	timerView      view.TimerModel
	worklogView    view.WorkLogModel
	deductionsView view.DeductionsModel
	financeView    view.FinanceModel
	importView     view.ImportModel
	debtsView      view.DebtsModel
	settingsView   view.SettingsModel
	backupView     view.BackupModel
}

type View int

const (
	ViewMenu View = iota
	ViewTimer
	ViewWorkLog
	ViewDeductions
	ViewFinance
	ViewImport
	ViewDebts
	ViewSettings
	ViewBackup
)

var menuEntries = []struct {
	key   string
	view  View
	label string
}{
	{"1", ViewTimer, "Časovač"},
	{"2", ViewWorkLog, "Pracovní záznamy"},
	{"3", ViewDeductions, "Srážky"},
	{"4", ViewFinance, "Finance"},
	{"5", ViewImport, "Import financí"},
	{"6", ViewDebts, "Dluhy"},
	{"7", ViewSettings, "Nastavení"},
	{"8", ViewBackup, "Záloha"},
}

func (m model) Init() tea.Cmd {
	return view.ListenTicks(m.ticks)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case view.TickMsg:
		var cmd tea.Cmd
		m.timerView, cmd = update(m.timerView, msg)

		return m, tea.Batch(cmd, view.ListenTicks(m.ticks))
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			if msg.String() == "q" {
				return m, tea.Quit
			}

			for _, e := range menuEntries {
				if msg.String() == e.key {
					return m.open(e.view)
				}
			}

			return m, nil
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	return m.forward(msg)
}

// open switches to v. Every view except the timer is rebuilt so it shows
// the current contents of the stores.
func (m model) open(v View) (tea.Model, tea.Cmd) {
	a := m.app
	people := m.people.Rates.People()

	switch v {
	case ViewWorkLog:
		m.worklogView = view.NewWorkLogModel(a.WorkLog, a.Settings, a.Export, people, m.exportDir)
	case ViewDeductions:
		m.deductionsView = view.NewDeductionsModel(a.WorkLog, a.Deductions, a.Export, m.exportDir)
	case ViewFinance:
		m.financeView = view.NewFinanceModel(a.Finance, a.Settings, a.Export, a.Location, m.exportDir)
	case ViewImport:
		m.importView = view.NewImportModel(a.Finance, a.Importer, a.Settings)
	case ViewDebts:
		m.debtsView = view.NewDebtsModel(a.Debts, a.Export, people, a.Location, m.exportDir)
	case ViewSettings:
		m.settingsView = view.NewSettingsModel(a.Settings, m.people)
	case ViewBackup:
		m.backupView = view.NewBackupModel(a.Backup, m.exportDir)
	}

	m.currentView = v

	next, sizeCmd := m.forward(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m = next.(model)

	var initCmd tea.Cmd

	switch v {
	case ViewTimer:
		initCmd = m.timerView.Init()
	case ViewWorkLog:
		initCmd = m.worklogView.Init()
	case ViewDeductions:
		initCmd = m.deductionsView.Init()
	case ViewFinance:
		initCmd = m.financeView.Init()
	case ViewImport:
		initCmd = m.importView.Init()
	case ViewDebts:
		initCmd = m.debtsView.Init()
	case ViewSettings:
		initCmd = m.settingsView.Init()
	case ViewBackup:
		initCmd = m.backupView.Init()
	}

	return m, tea.Batch(sizeCmd, initCmd)
}

func (m model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewTimer:
		m.timerView, cmd = update(m.timerView, msg)
	case ViewWorkLog:
		m.worklogView, cmd = update(m.worklogView, msg)
	case ViewDeductions:
		m.deductionsView, cmd = update(m.deductionsView, msg)
	case ViewFinance:
		m.financeView, cmd = update(m.financeView, msg)
	case ViewImport:
		m.importView, cmd = update(m.importView, msg)
	case ViewDebts:
		m.debtsView, cmd = update(m.debtsView, msg)
	case ViewSettings:
		m.settingsView, cmd = update(m.settingsView, msg)
	case ViewBackup:
		m.backupView, cmd = update(m.backupView, msg)
	}

	return m, cmd
}

func update[M tea.Model](current M, msg tea.Msg) (M, tea.Cmd) {
	next, cmd := current.Update(msg)
	return next.(M), cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return m.viewMenu()
	case ViewTimer:
		return m.timerView.View()
	case ViewWorkLog:
		return m.worklogView.View()
	case ViewDeductions:
		return m.deductionsView.View()
	case ViewFinance:
		return m.financeView.View()
	case ViewImport:
		return m.importView.View()
	case ViewDebts:
		return m.debtsView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewBackup:
		return m.backupView.View()
	}

	return "Neznámá obrazovka"
}

func (m model) viewMenu() string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(m.name) + "\n\n")

	for _, e := range menuEntries {
		fmt.Fprintf(&sb, "%s. %s\n", e.key, e.label)
	}

	sb.WriteString("\nq. Konec")

	if s := m.app.Timer.Tick(); s.State != timer.Idle {
		fmt.Fprintf(&sb, "\n\nČasovač: %s %s (%s)",
			s.Person.Title(), timefmt.FormatDuration(s.Elapsed.Milliseconds()), s.Activity)
	}

	return lipgloss.NewStyle().Padding(2).Render(sb.String())
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	logFile, err := log.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()

	slog.SetDefault(log.New(logFile, log.Config{Level: level, Component: "tui"}))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	people, err := config.LoadPeople(cfg.App.PeopleFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ticks := make(chan timer.Snapshot, 1)

	a, err := app.New(ctx, store, people, loc,
		timer.WithTickInterval(cfg.App.TickInterval),
		timer.WithOnTick(func(s timer.Snapshot) {
			select {
			case ticks <- s:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}

	slog.InfoContext(ctx, "application started", "backend", cfg.Storage.Backend, "timezone", loc.String())

	m := model{
		app:         a,
		people:      people,
		name:        cfg.App.Name,
		exportDir:   config.DefaultExportDir(),
		ticks:       ticks,
		currentView: ViewMenu,
		timerView:   view.NewTimerModel(ctx, a.Timer, a.Settings, people.Rates.People()),
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("vykazy failed", "error", err)
		os.Exit(1)
	}
}
