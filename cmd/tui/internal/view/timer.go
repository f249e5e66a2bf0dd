package view

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/timer"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

// TickMsg carries a timer snapshot from the tick loop.
type TickMsg timer.Snapshot

// ListenTicks waits for the next snapshot on ticks.
func ListenTicks(ticks <-chan timer.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return TickMsg(<-ticks)
	}
}

type timerState int

const (
	timerStateShow timerState = iota
	timerStateForm
)

type TimerModel struct {
	CommonModel
	// ctx outlives individual key presses; the tick loop is bound to it.
	ctx      context.Context
	timer    *timer.Timer
	settings *settings.Service
	people   []person.Person

	state    timerState
	snapshot timer.Snapshot
	form     *huh.Form
	status   string
	err      error

	// fields is shared by copies of the model so huh can write into it.
	fields *timerFields
}

type timerFields struct {
	person   person.Person
	activity string
	note     string
}

func NewTimerModel(ctx context.Context, t *timer.Timer, settingsSvc *settings.Service, people []person.Person) TimerModel {
	return TimerModel{
		ctx:      ctx,
		timer:    t,
		settings: settingsSvc,
		people:   people,
		snapshot: t.Tick(),
	}
}

func (m TimerModel) Title() string { return "Časovač" }

func (m TimerModel) ShortHelp() string {
	if m.state == timerStateForm {
		return "Enter: potvrdit | Esc: zrušit"
	}

	switch m.snapshot.State {
	case timer.Running:
		return "p: pauza | x: ukončit a uložit | r: zahodit | Esc: zpět"
	case timer.Paused:
		return "s: pokračovat | x: ukončit a uložit | r: zahodit | Esc: zpět"
	}

	return "s: spustit | Esc: zpět"
}

func (m TimerModel) Init() tea.Cmd {
	return nil
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		m.snapshot = timer.Snapshot(msg)
		return m, nil
	case timerStoppedMsg:
		m.snapshot = m.timer.Tick()
		m.err = msg.err

		if msg.err == nil && msg.session != nil {
			m.status = fmt.Sprintf("Uloženo: %s, %s, %s",
				msg.session.Person.Title(), FormatHours(msg.session.Hours()), FormatKc(msg.session.Earnings))
		}

		return m, nil
	}

	if m.state == timerStateForm {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "s":
		if m.snapshot.State == timer.Running {
			return m, nil
		}

		return m.enterForm()
	case "p":
		m.timer.Pause()
		m.snapshot = m.timer.Tick()
	case "x":
		return m, m.stopCmd()
	case "r":
		m.timer.Reset()
		m.snapshot = m.timer.Tick()
		m.status = "Záznam zahozen."
		m.err = nil
	}

	return m, nil
}

func (m TimerModel) enterForm() (tea.Model, tea.Cmd) {
	f := &timerFields{person: m.snapshot.Person, activity: m.snapshot.Activity, note: m.snapshot.Note}
	if f.person == "" && len(m.people) > 0 {
		f.person = m.people[0]
	}

	m.fields = f

	personOpts := make([]huh.Option[person.Person], len(m.people))
	for i, p := range m.people {
		personOpts[i] = huh.NewOption(p.Title(), p)
	}

	activities := m.settings.TaskCategories()
	if f.activity == "" && len(activities) > 0 {
		f.activity = activities[0]
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[person.Person]().
				Title("Osoba").
				Options(personOpts...).
				Value(&f.person),
			huh.NewSelect[string]().
				Title("Úkol").
				Options(huh.NewOptions(activities...)...).
				Value(&f.activity),
			huh.NewInput().
				Title("Poznámka").
				Value(&f.note),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = timerStateForm

	return m, m.form.Init()
}

func (m TimerModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = timerStateShow
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = timerStateShow
	m.form = nil
	m.err = m.timer.Start(m.ctx, m.fields.person, m.fields.activity, m.fields.note)
	m.status = ""
	m.snapshot = m.timer.Tick()

	return m, nil
}

func (m TimerModel) View() string {
	if m.state == timerStateForm {
		return lipgloss.NewStyle().Padding(1).Render(
			headerStyle.Render("Spustit časovač") + "\n\n" + m.form.View(),
		)
	}

	s := m.snapshot
	clock := lipgloss.NewStyle().Bold(true).Render(timefmt.FormatDuration(s.Elapsed.Milliseconds()))

	lines := []string{
		headerStyle.Render("Časovač"),
		"",
		fmt.Sprintf("Stav:     %s", activeStyle(stateLabel(s.State))),
		fmt.Sprintf("Čas:      %s", clock),
	}

	if s.State != timer.Idle {
		lines = append(lines,
			fmt.Sprintf("Osoba:    %s", s.Person.Title()),
			fmt.Sprintf("Úkol:     %s", s.Activity),
			fmt.Sprintf("Výdělek:  %s", FormatKc(s.Earnings)),
		)

		if s.Note != "" {
			lines = append(lines, fmt.Sprintf("Poznámka: %s", s.Note))
		}
	}

	if line := statusLine(m.status, m.err); line != "" {
		lines = append(lines, "", line)
	}

	lines = append(lines, "", faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func stateLabel(s timer.State) string {
	switch s {
	case timer.Running:
		return "Běží"
	case timer.Paused:
		return "Pozastaveno"
	}

	return "Připraveno"
}

type timerStoppedMsg struct {
	session *worklog.WorkSession
	err     error
}

func (m TimerModel) stopCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		session, err := m.timer.Stop(ctx)

		return timerStoppedMsg{session: session, err: err}
	}
}
