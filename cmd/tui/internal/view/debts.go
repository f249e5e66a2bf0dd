package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/export"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

type debtsState int

const (
	debtsStateBrowse debtsState = iota
	debtsStateDebtForm
	debtsStatePaymentForm
	debtsStateDelete
)

type DebtsModel struct {
	CommonModel
	debts     *debt.Service
	exporter  *export.Service
	people    []person.Person
	loc       *time.Location
	exportDir string

	state      debtsState
	table      table.Model
	list       []debt.Debt
	activeOnly bool
	bar        progress.Model
	form       *huh.Form
	fields     *debtFields
	editingID  string

	status string
	err    error
}

type debtFields struct {
	person      person.Person
	description string
	amount      string
	currency    string
	date        string
	dueDate     string
	note        string
	confirmDel  bool
}

func NewDebtsModel(svc *debt.Service, exporter *export.Service, people []person.Person, loc *time.Location, exportDir string) DebtsModel {
	t := newTable([]table.Column{
		{Title: "Osoba", Width: 8},
		{Title: "Popis", Width: 24},
		{Title: "Částka", Width: 14},
		{Title: "Zbývá", Width: 14},
		{Title: "Splatnost", Width: 11},
		{Title: "Stav", Width: 14},
	}, 12)

	m := DebtsModel{
		debts:     svc,
		exporter:  exporter,
		people:    people,
		loc:       loc,
		exportDir: exportDir,
		table:     t,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
	m.refresh()

	return m
}

func (m DebtsModel) Title() string { return "Dluhy" }

func (m DebtsModel) ShortHelp() string {
	return "a: nový dluh | e: upravit | p: splátka | d: smazat | z: jen aktivní | x: export CSV | Esc: zpět"
}

func (m DebtsModel) Init() tea.Cmd {
	return nil
}

func (m DebtsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.status = msg.status
		m.err = msg.err
		m.state = debtsStateBrowse
		m.form = nil
		m.table.Focus()
		m.refresh()

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-18, 5))
		return m, nil
	}

	if m.state != debtsStateBrowse {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterDebtForm(nil)
		case "e":
			if d, ok := m.selected(); ok {
				return m.enterDebtForm(&d)
			}

			return m, nil
		case "p":
			return m.enterPaymentForm()
		case "d":
			return m.enterDelete()
		case "z":
			m.activeOnly = !m.activeOnly
			m.refresh()

			return m, nil
		case "x":
			return m, m.exportCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DebtsModel) selected() (debt.Debt, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return debt.Debt{}, false
	}

	return m.list[idx], true
}

func (m DebtsModel) today() timefmt.Date {
	return timefmt.DateOf(time.Now(), m.loc)
}

func (m DebtsModel) enterDebtForm(existing *debt.Debt) (tea.Model, tea.Cmd) {
	f := &debtFields{
		date:     m.today().String(),
		currency: "CZK",
	}
	if len(m.people) > 0 {
		f.person = m.people[0]
	}

	m.editingID = ""

	if existing != nil {
		f.person = existing.Person
		f.description = existing.Description
		f.amount = money.FormatCSV(existing.Amount)
		f.currency = existing.Currency
		f.date = existing.Date.String()
		if !existing.DueDate.IsZero() {
			f.dueDate = existing.DueDate.String()
		}

		m.editingID = existing.ID
	}

	personOpts := make([]huh.Option[person.Person], len(m.people))
	for i, p := range m.people {
		personOpts[i] = huh.NewOption(p.Title(), p)
	}

	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[person.Person]().Title("Dlužník").Options(personOpts...).Value(&f.person),
			huh.NewInput().Title("Popis").Value(&f.description).Validate(validateRequired),
			huh.NewInput().Title("Částka").Value(&f.amount).Validate(validateAmount),
			huh.NewInput().Title("Měna").Value(&f.currency).Validate(validateRequired),
			huh.NewInput().Title("Datum").Placeholder("RRRR-MM-DD").Value(&f.date).Validate(validateDate),
			huh.NewInput().Title("Splatnost").Placeholder("RRRR-MM-DD (nepovinné)").Value(&f.dueDate).Validate(validateOptionalDate),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = debtsStateDebtForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m DebtsModel) enterPaymentForm() (tea.Model, tea.Cmd) {
	d, ok := m.selected()
	if !ok || !d.Remaining.IsPositive() {
		return m, nil
	}

	f := &debtFields{
		amount: money.FormatCSV(d.Remaining),
		date:   m.today().String(),
	}
	m.fields = f
	m.editingID = d.ID
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Částka").Value(&f.amount).Validate(validateAmount),
			huh.NewInput().Title("Datum").Placeholder("RRRR-MM-DD").Value(&f.date).Validate(validateDate),
			huh.NewInput().Title("Poznámka").Value(&f.note),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = debtsStatePaymentForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m DebtsModel) enterDelete() (tea.Model, tea.Cmd) {
	d, ok := m.selected()
	if !ok {
		return m, nil
	}

	f := &debtFields{}
	m.fields = f
	m.editingID = d.ID
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Smazat dluh %s včetně splátek?", d.Description)).
				Affirmative("Smazat").
				Negative("Ne").
				Value(&f.confirmDel),
		),
	).WithShowHelp(false)

	m.state = debtsStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m DebtsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = debtsStateBrowse
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

	switch m.state {
	case debtsStateDelete:
		return m, m.deleteCmd()
	case debtsStatePaymentForm:
		return m, m.paymentCmd()
	}

	return m, m.saveCmd()
}

func (m *DebtsModel) refresh() {
	if m.activeOnly {
		m.list = m.debts.ListActiveDebts()
	} else {
		m.list = m.debts.ListDebts()
	}

	today := m.today()

	rows := make([]table.Row, 0, len(m.list))
	for _, d := range m.list {
		due := "-"
		if !d.DueDate.IsZero() {
			due = d.DueDate.Display()
		}

		rows = append(rows, table.Row{
			d.Person.Title(),
			d.Description,
			FormatAmount(d.Amount, d.Currency),
			FormatAmount(d.Remaining, d.Currency),
			due,
			debt.StatusOf(d, today).Label(),
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m DebtsModel) View() string {
	filter := "Vše"
	if m.activeOnly {
		filter = "Aktivní"
	}

	header := fmt.Sprintf("[z] Zobrazit: %s", activeStyle(filter))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		renderTable(m.table),
		m.viewDetail(),
	)

	switch m.state {
	case debtsStateDebtForm:
		title := "Nový dluh"
		if m.editingID != "" {
			title = "Upravit dluh"
		}

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(50).Render(title+"\n\n"+m.form.View()))
	case debtsStatePaymentForm:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(50).Render("Nová splátka\n\n"+m.form.View()))
	case debtsStateDelete:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.form.View()))
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m DebtsModel) viewDetail() string {
	d, ok := m.selected()
	if !ok {
		return faintStyle.Render("Žádné dluhy.")
	}

	pr, err := m.debts.Progress(d.ID)
	if err != nil {
		return errStyle.Render(err.Error())
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s  splaceno %s, zbývá %s\n",
		m.bar.ViewAs(pr.Percent/100),
		FormatAmount(pr.TotalPaid, d.Currency),
		FormatAmount(pr.Remaining, d.Currency),
	)

	payments := m.debts.Payments(d.ID)
	if len(payments) == 0 {
		sb.WriteString(faintStyle.Render("Zatím žádné splátky."))
		return sb.String()
	}

	sb.WriteString(headerStyle.Render("Splátky") + "\n")

	for _, p := range payments {
		fmt.Fprintf(&sb, "%s  %s  %s\n", p.Date.Display(), FormatAmount(p.Amount, d.Currency), p.Note)
	}

	return sb.String()
}

func (m DebtsModel) saveCmd() tea.Cmd {
	f := m.fields
	id := m.editingID

	return func() tea.Msg {
		amount, err := money.Parse(f.amount)
		if err != nil {
			return savedMsg{err: err}
		}

		date, err := timefmt.ParseDate(strings.TrimSpace(f.date))
		if err != nil {
			return savedMsg{err: err}
		}

		var due timefmt.Date
		if s := strings.TrimSpace(f.dueDate); s != "" {
			if due, err = timefmt.ParseDate(s); err != nil {
				return savedMsg{err: err}
			}
		}

		params := debt.CreateParams{
			Person:      f.person,
			Description: f.description,
			Amount:      amount,
			Currency:    strings.ToUpper(strings.TrimSpace(f.currency)),
			Date:        date,
			DueDate:     due,
		}

		ctx, cancel := storeCtx()
		defer cancel()

		if id == "" {
			_, err = m.debts.CreateDebt(ctx, params)
			return savedMsg{status: "Dluh přidán.", err: err}
		}

		_, err = m.debts.UpdateDebt(ctx, id, params)

		return savedMsg{status: "Dluh upraven.", err: err}
	}
}

func (m DebtsModel) paymentCmd() tea.Cmd {
	f := m.fields
	id := m.editingID

	return func() tea.Msg {
		amount, err := money.Parse(f.amount)
		if err != nil {
			return savedMsg{err: err}
		}

		date, err := timefmt.ParseDate(strings.TrimSpace(f.date))
		if err != nil {
			return savedMsg{err: err}
		}

		ctx, cancel := storeCtx()
		defer cancel()

		_, err = m.debts.RecordPayment(ctx, debt.PaymentParams{
			DebtID: id,
			Amount: amount,
			Date:   date,
			Note:   strings.TrimSpace(f.note),
		})

		return savedMsg{status: "Splátka zaznamenána.", err: err}
	}
}

func (m DebtsModel) deleteCmd() tea.Cmd {
	if !m.fields.confirmDel {
		return func() tea.Msg { return savedMsg{} }
	}

	id := m.editingID

	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		return savedMsg{status: "Dluh smazán.", err: m.debts.DeleteDebt(ctx, id)}
	}
}

func (m DebtsModel) exportCmd() tea.Cmd {
	debts := m.debts.ListDebts()
	payments := m.debts.AllPayments()

	return func() tea.Msg {
		path, err := writeFile(m.exportDir, export.DebtsFile, func(w io.Writer) error {
			return m.exporter.Debts(w, debts, payments)
		})
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: "Exportováno do " + path}
	}
}
