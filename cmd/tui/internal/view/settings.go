package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/config"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
)

type settingsSection int

const (
	sectionTasks settingsSection = iota
	sectionExpenses
	sectionCount
)

type settingsState int

const (
	settingsStateBrowse settingsState = iota
	settingsStateAdd
	settingsStateRemove
	settingsStateRent
)

type SettingsModel struct {
	CommonModel
	settings *settings.Service
	people   config.People

	state   settingsState
	section settingsSection
	cursor  int
	form    *huh.Form
	fields  *settingsFields

	status string
	err    error
}

type settingsFields struct {
	name       string
	amount     string
	day        string
	confirmDel bool
}

func NewSettingsModel(svc *settings.Service, people config.People) SettingsModel {
	return SettingsModel{settings: svc, people: people}
}

func (m SettingsModel) Title() string { return "Nastavení" }

func (m SettingsModel) ShortHelp() string {
	return "Tab: přepnout seznam | a: přidat | d: odebrat | n: nájem | Esc: zpět"
}

func (m SettingsModel) Init() tea.Cmd {
	return nil
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if saved, ok := msg.(savedMsg); ok {
		m.status = saved.status
		m.err = saved.err
		m.state = settingsStateBrowse
		m.form = nil
		m.cursor = min(m.cursor, max(len(m.items())-1, 0))

		return m, nil
	}

	if m.state != settingsStateBrowse {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "tab":
		m.section = (m.section + 1) % sectionCount
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}
	case "a":
		return m.enterAdd()
	case "d":
		return m.enterRemove()
	case "n":
		return m.enterRent()
	}

	return m, nil
}

func (m SettingsModel) items() []string {
	if m.section == sectionExpenses {
		return m.settings.ExpenseCategories()
	}

	return m.settings.TaskCategories()
}

func (m SettingsModel) enterAdd() (tea.Model, tea.Cmd) {
	f := &settingsFields{}
	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Nová kategorie").Value(&f.name).Validate(validateRequired),
		),
	).WithWidth(40).WithShowHelp(false)
	m.state = settingsStateAdd

	return m, m.form.Init()
}

func (m SettingsModel) enterRemove() (tea.Model, tea.Cmd) {
	items := m.items()
	if m.cursor >= len(items) {
		return m, nil
	}

	f := &settingsFields{name: items[m.cursor]}
	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Odebrat kategorii %q?", f.name)).
				Affirmative("Odebrat").
				Negative("Ne").
				Value(&f.confirmDel),
		),
	).WithShowHelp(false)
	m.state = settingsStateRemove

	return m, m.form.Init()
}

func (m SettingsModel) enterRent() (tea.Model, tea.Cmd) {
	rent := m.settings.Rent()
	f := &settingsFields{
		amount: money.FormatCSV(rent.Amount),
		day:    strconv.Itoa(rent.Day),
	}
	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Nájem (Kč)").Value(&f.amount).Validate(func(s string) error {
				if _, err := money.Parse(s); err != nil {
					return errors.New("zadejte částku")
				}

				return nil
			}),
			huh.NewInput().Title("Den splatnosti").Value(&f.day).Validate(func(s string) error {
				d, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || d < 1 || d > 31 {
					return errors.New("zadejte den 1-31")
				}

				return nil
			}),
		),
	).WithWidth(40).WithShowHelp(false)
	m.state = settingsStateRent

	return m, m.form.Init()
}

func (m SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = settingsStateBrowse
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

	return m, m.saveCmd()
}

func (m SettingsModel) saveCmd() tea.Cmd {
	f := m.fields
	state := m.state
	expenses := m.section == sectionExpenses

	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		switch state {
		case settingsStateAdd:
			add := m.settings.AddTaskCategory
			if expenses {
				add = m.settings.AddExpenseCategory
			}

			return savedMsg{status: "Kategorie přidána.", err: add(ctx, f.name)}
		case settingsStateRemove:
			if !f.confirmDel {
				return savedMsg{}
			}

			remove := m.settings.RemoveTaskCategory
			if expenses {
				remove = m.settings.RemoveExpenseCategory
			}

			return savedMsg{status: "Kategorie odebrána.", err: remove(ctx, f.name)}
		}

		amount, err := money.Parse(f.amount)
		if err != nil {
			return savedMsg{err: err}
		}

		day, err := strconv.Atoi(strings.TrimSpace(f.day))
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{
			status: "Nájem uložen.",
			err:    m.settings.SetRent(ctx, settings.Rent{Amount: amount, Day: day}),
		}
	}
}

func (m SettingsModel) View() string {
	titles := map[settingsSection]string{
		sectionTasks:    "Úkoly",
		sectionExpenses: "Kategorie výdajů",
	}

	var lists []string

	for s := range sectionCount {
		items := m.settings.TaskCategories()
		if s == sectionExpenses {
			items = m.settings.ExpenseCategories()
		}

		title := titles[s]
		if s == m.section {
			title = activeStyle(title)
		}

		var sb strings.Builder

		sb.WriteString(title + "\n\n")

		for i, item := range items {
			cursor := "  "
			if s == m.section && i == m.cursor {
				cursor = "> "
			}

			sb.WriteString(cursor + item + "\n")
		}

		lists = append(lists, panelStyle.Width(30).Render(sb.String()))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, lists...),
		m.viewRent(),
		m.viewPeople(),
	)

	if m.state != settingsStateBrowse {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.form.View()))
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m SettingsModel) viewRent() string {
	rent := m.settings.Rent()
	return fmt.Sprintf("\nNájem: %s, splatný %d. den v měsíci", FormatAmount(rent.Amount, "Kč"), rent.Day)
}

func (m SettingsModel) viewPeople() string {
	var sb strings.Builder

	sb.WriteString("\n" + headerStyle.Render("Sazby") + "\n")

	for _, p := range m.people.Rates.People() {
		rate, err := m.people.Rates.Rate(p)
		if err != nil {
			continue
		}

		share := "-"
		if f, ok := m.people.Deductions[p]; ok {
			share = f.String()
		}

		fmt.Fprintf(&sb, "%-8s %s/h, srážka %s\n", p.Title(), FormatAmount(rate, "Kč"), share)
	}

	return sb.String()
}
