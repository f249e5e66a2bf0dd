package view

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/export"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type worklogState int

const (
	worklogStateBrowse worklogState = iota
	worklogStateTimeframe
	worklogStateForm
	worklogStateDelete
)

type WorkLogModel struct {
	CommonModel
	worklog   *worklog.Service
	settings  *settings.Service
	exporter  *export.Service
	people    []person.Person
	exportDir string

	state           worklogState
	table           table.Model
	sessions        []worklog.WorkSession
	timeframePicker TimeframePicker
	form            *huh.Form
	fields          *sessionFields
	editingID       string

	filter       worklog.Filter
	periodLabel  string
	personIdx    int
	activityIdx  int
	breakdownDim int

	status string
	err    error
}

type sessionFields struct {
	person     person.Person
	date       string
	start      string
	end        string
	breakMins  string
	activity   string
	note       string
	confirmDel bool
}

func NewWorkLogModel(
	svc *worklog.Service,
	settingsSvc *settings.Service,
	exporter *export.Service,
	people []person.Person,
	exportDir string,
) WorkLogModel {
	t := newTable([]table.Column{
		{Title: "Datum", Width: 12},
		{Title: "Osoba", Width: 8},
		{Title: "Úkol", Width: 16},
		{Title: "Od", Width: 6},
		{Title: "Do", Width: 6},
		{Title: "Doba", Width: 9},
		{Title: "Výdělek", Width: 11},
		{Title: "Poznámka", Width: 30},
	}, 15)

	m := WorkLogModel{
		worklog:         svc,
		settings:        settingsSvc,
		exporter:        exporter,
		people:          people,
		exportDir:       exportDir,
		table:           t,
		timeframePicker: NewTimeframePicker(svc.Location(), TimeframeThisMonth),
		periodLabel:     TimeframeAll.String(),
		breakdownDim:    -1,
	}
	m.refresh()

	return m
}

func (m WorkLogModel) Title() string { return "Pracovní záznamy" }

func (m WorkLogModel) ShortHelp() string {
	return "a: přidat | e: upravit | d: smazat | f: období | o: osoba | u: úkol | b: přehled | x: export CSV | Esc: zpět"
}

func (m WorkLogModel) Init() tea.Cmd {
	return nil
}

func (m WorkLogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.filter.StartDate = msg.Start
		m.filter.EndDate = msg.End
		m.periodLabel = msg.Label
		m.state = worklogStateBrowse
		m.refresh()

		return m, nil
	case savedMsg:
		m.status = msg.status
		m.err = msg.err
		m.state = worklogStateBrowse
		m.form = nil
		m.table.Focus()
		m.refresh()

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-14, 5))
		return m, nil
	}

	switch m.state {
	case worklogStateTimeframe:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			m.state = worklogStateBrowse
			return m, nil
		}

		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd
	case worklogStateForm, worklogStateDelete:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m WorkLogModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterForm(nil)
		case "e":
			if s, ok := m.selected(); ok {
				return m.enterForm(&s)
			}

			return m, nil
		case "d":
			return m.enterDelete()
		case "f":
			m.timeframePicker.Reset()
			m.state = worklogStateTimeframe

			return m, nil
		case "o":
			m.personIdx = (m.personIdx + 1) % (len(m.people) + 1)
			m.filter.Person = ""

			if m.personIdx > 0 {
				m.filter.Person = m.people[m.personIdx-1]
			}

			m.refresh()

			return m, nil
		case "u":
			activities := m.worklog.Activities()
			m.activityIdx = (m.activityIdx + 1) % (len(activities) + 1)
			m.filter.Activity = ""

			if m.activityIdx > 0 {
				m.filter.Activity = activities[m.activityIdx-1]
			}

			m.refresh()

			return m, nil
		case "b":
			m.breakdownDim++
			if m.breakdownDim > int(worklog.ByMonth) {
				m.breakdownDim = -1
			}

			return m, nil
		case "x":
			return m, m.exportCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m WorkLogModel) selected() (worklog.WorkSession, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.sessions) {
		return worklog.WorkSession{}, false
	}

	return m.sessions[idx], true
}

func (m WorkLogModel) enterForm(existing *worklog.WorkSession) (tea.Model, tea.Cmd) {
	loc := m.worklog.Location()
	f := &sessionFields{
		date:      timefmt.DateOf(time.Now(), loc).String(),
		breakMins: "0",
	}

	if len(m.people) > 0 {
		f.person = m.people[0]
	}

	m.editingID = ""

	if existing != nil {
		entry := m.worklog.EntryFor(*existing)
		f.person = entry.Person
		f.date = entry.Date.String()
		f.start = entry.Start
		f.end = entry.End
		f.breakMins = strconv.Itoa(entry.BreakMinutes)
		f.activity = entry.Activity
		f.note = entry.Note
		m.editingID = existing.ID
	}

	activities := m.settings.TaskCategories()
	if f.activity == "" && len(activities) > 0 {
		f.activity = activities[0]
	}

	if f.activity != "" && !slices.Contains(activities, f.activity) {
		activities = append(activities, f.activity)
	}

	personOpts := make([]huh.Option[person.Person], len(m.people))
	for i, p := range m.people {
		personOpts[i] = huh.NewOption(p.Title(), p)
	}

	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[person.Person]().Title("Osoba").Options(personOpts...).Value(&f.person),
			huh.NewInput().Title("Datum").Placeholder("RRRR-MM-DD").Value(&f.date).Validate(validateDate),
			huh.NewInput().Title("Začátek").Placeholder("HH:MM").Value(&f.start).Validate(validateClock),
			huh.NewInput().Title("Konec").Placeholder("HH:MM").Value(&f.end).Validate(validateClock),
			huh.NewInput().Title("Přestávka (min)").Value(&f.breakMins).Validate(validateMinutes),
			huh.NewSelect[string]().Title("Úkol").Options(huh.NewOptions(activities...)...).Value(&f.activity),
			huh.NewInput().Title("Poznámka").Value(&f.note),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = worklogStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m WorkLogModel) enterDelete() (tea.Model, tea.Cmd) {
	s, ok := m.selected()
	if !ok {
		return m, nil
	}

	f := &sessionFields{}
	m.fields = f
	m.editingID = s.ID
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Smazat záznam %s, %s?", timefmt.FormatDateTime(s.StartTime.In(m.worklog.Location())), s.Activity)).
				Affirmative("Smazat").
				Negative("Ne").
				Value(&f.confirmDel),
		),
	).WithShowHelp(false)

	m.state = worklogStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m WorkLogModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = worklogStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == worklogStateDelete {
		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m *WorkLogModel) refresh() {
	m.sessions = m.worklog.List(m.filter)

	rows := make([]table.Row, 0, len(m.sessions))
	loc := m.worklog.Location()

	for _, s := range m.sessions {
		start := s.StartTime.In(loc)
		rows = append(rows, table.Row{
			timefmt.FormatDate(start),
			s.Person.Title(),
			s.Activity,
			timefmt.FormatClock(start),
			timefmt.FormatClock(s.EndTime.In(loc)),
			FormatHours(s.Hours()),
			FormatKc(s.Earnings),
			s.Note,
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m WorkLogModel) View() string {
	personLabel := "Všichni"
	if m.filter.Person != "" {
		personLabel = m.filter.Person.Title()
	}

	activityLabel := "Vše"
	if m.filter.Activity != "" {
		activityLabel = m.filter.Activity
	}

	var hours float64

	var earnings int64

	for _, s := range m.sessions {
		hours += s.Hours()
		earnings += s.Earnings
	}

	header := fmt.Sprintf(
		"[f] Období: %s | [o] Osoba: %s | [u] Úkol: %s",
		activeStyle(m.periodLabel), activeStyle(personLabel), activeStyle(activityLabel),
	)
	totals := fmt.Sprintf("Celkem: %s, %s, %d záznamů", FormatHours(hours), FormatKc(earnings), len(m.sessions))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		renderTable(m.table),
		totals,
	)

	switch m.state {
	case worklogStateTimeframe:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.timeframePicker.View()))
	case worklogStateForm:
		title := "Nový záznam"
		if m.editingID != "" {
			title = "Upravit záznam"
		}

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(50).Render(title+"\n\n"+m.form.View()))
	case worklogStateDelete:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.form.View()))
	case worklogStateBrowse:
		if m.breakdownDim >= 0 {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.viewBreakdown()))
		}
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m WorkLogModel) viewBreakdown() string {
	dim := worklog.Dimension(m.breakdownDim)
	titles := map[worklog.Dimension]string{
		worklog.ByPerson:   "Hodiny podle osoby",
		worklog.ByActivity: "Hodiny podle úkolu",
		worklog.ByMonth:    "Hodiny podle měsíce",
	}

	buckets := m.worklog.Breakdown(m.sessions, dim)

	var top float64
	for _, b := range buckets {
		top = max(top, b.Hours)
	}

	var sb strings.Builder

	sb.WriteString(headerStyle.Render(titles[dim]) + "\n\n")

	for _, b := range buckets {
		width := 0
		if top > 0 {
			width = int(b.Hours / top * 20)
		}

		fmt.Fprintf(&sb, "%-16s %s %s\n", b.Label, activeStyle(strings.Repeat("█", width)), FormatHours(b.Hours))
	}

	return sb.String()
}

func (m WorkLogModel) saveCmd() tea.Cmd {
	f := m.fields
	id := m.editingID

	return func() tea.Msg {
		date, err := timefmt.ParseDate(f.date)
		if err != nil {
			return savedMsg{err: err}
		}

		breakMins, err := strconv.Atoi(strings.TrimSpace(f.breakMins))
		if err != nil {
			return savedMsg{err: fmt.Errorf("neplatná přestávka: %w", err)}
		}

		entry := worklog.ManualEntry{
			Person:       f.person,
			Date:         date,
			Start:        strings.TrimSpace(f.start),
			End:          strings.TrimSpace(f.end),
			BreakMinutes: breakMins,
			Activity:     f.activity,
			Note:         strings.TrimSpace(f.note),
		}

		ctx, cancel := storeCtx()
		defer cancel()

		if id == "" {
			_, err = m.worklog.CreateManual(ctx, entry)
			return savedMsg{status: "Záznam přidán.", err: err}
		}

		_, err = m.worklog.UpdateManual(ctx, id, entry)

		return savedMsg{status: "Záznam upraven.", err: err}
	}
}

func (m WorkLogModel) deleteCmd() tea.Cmd {
	if !m.fields.confirmDel {
		return func() tea.Msg { return savedMsg{} }
	}

	id := m.editingID

	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		return savedMsg{status: "Záznam smazán.", err: m.worklog.Delete(ctx, id)}
	}
}

func (m WorkLogModel) exportCmd() tea.Cmd {
	sessions := m.sessions

	return func() tea.Msg {
		path, err := writeFile(m.exportDir, export.WorkSessionsFile, func(w io.Writer) error {
			return m.exporter.WorkSessions(w, sessions)
		})
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: "Exportováno do " + path}
	}
}
