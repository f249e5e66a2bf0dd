package view

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/export"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

type financeState int

const (
	financeStateBrowse financeState = iota
	financeStateForm
	financeStateDelete
)

type FinanceModel struct {
	CommonModel
	finance   *finance.Service
	settings  *settings.Service
	exporter  *export.Service
	loc       *time.Location
	exportDir string

	state     financeState
	table     table.Model
	records   []finance.Record
	typeIdx   int
	form      *huh.Form
	fields    *recordFields
	editingID string

	status string
	err    error
}

type recordFields struct {
	typ         finance.Type
	date        string
	description string
	category    string
	amount      string
	currency    string
	confirmDel  bool
}

func NewFinanceModel(svc *finance.Service, settingsSvc *settings.Service, exporter *export.Service, loc *time.Location, exportDir string) FinanceModel {
	t := newTable([]table.Column{
		{Title: "Datum", Width: 12},
		{Title: "Typ", Width: 8},
		{Title: "Popis", Width: 30},
		{Title: "Kategorie", Width: 14},
		{Title: "Částka", Width: 16},
	}, 15)

	m := FinanceModel{
		finance:   svc,
		settings:  settingsSvc,
		exporter:  exporter,
		loc:       loc,
		exportDir: exportDir,
		table:     t,
	}
	m.refresh()

	return m
}

func (m FinanceModel) Title() string { return "Finance" }

func (m FinanceModel) ShortHelp() string {
	return "a: přidat | e: upravit | d: smazat | t: typ | x: export CSV | Esc: zpět"
}

func (m FinanceModel) Init() tea.Cmd {
	return nil
}

func (m FinanceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.status = msg.status
		m.err = msg.err
		m.state = financeStateBrowse
		m.form = nil
		m.table.Focus()
		m.refresh()

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-14, 5))
		return m, nil
	}

	if m.state != financeStateBrowse {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterForm(nil)
		case "e":
			if r, ok := m.selected(); ok {
				return m.enterForm(&r)
			}

			return m, nil
		case "d":
			return m.enterDelete()
		case "t":
			m.typeIdx = (m.typeIdx + 1) % 3
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

func (m FinanceModel) selected() (finance.Record, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return finance.Record{}, false
	}

	return m.records[idx], true
}

func (m FinanceModel) enterForm(existing *finance.Record) (tea.Model, tea.Cmd) {
	f := &recordFields{
		typ:      finance.TypeExpense,
		date:     timefmt.DateOf(time.Now(), m.loc).String(),
		currency: "CZK",
	}
	m.editingID = ""

	if existing != nil {
		f.typ = existing.Type
		f.date = existing.Date.String()
		f.description = existing.Description
		f.category = existing.Category
		f.amount = money.FormatCSV(existing.Amount)
		f.currency = existing.Currency
		m.editingID = existing.ID
	}

	categories := append([]string{""}, m.settings.ExpenseCategories()...)
	if !slices.Contains(categories, f.category) {
		categories = append(categories, f.category)
	}

	categoryOpts := make([]huh.Option[string], len(categories))
	for i, c := range categories {
		label := c
		if c == "" {
			label = "(bez kategorie)"
		}

		categoryOpts[i] = huh.NewOption(label, c)
	}

	m.fields = f
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[finance.Type]().
				Title("Typ").
				Options(
					huh.NewOption(finance.TypeExpense.Label(), finance.TypeExpense),
					huh.NewOption(finance.TypeIncome.Label(), finance.TypeIncome),
				).
				Value(&f.typ),
			huh.NewInput().Title("Datum").Placeholder("RRRR-MM-DD").Value(&f.date).Validate(validateDate),
			huh.NewInput().Title("Popis").Value(&f.description).Validate(validateRequired),
			huh.NewSelect[string]().Title("Kategorie").Options(categoryOpts...).Value(&f.category),
			huh.NewInput().Title("Částka").Value(&f.amount).Validate(validateAmount),
			huh.NewInput().Title("Měna").Value(&f.currency).Validate(validateRequired),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = financeStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m FinanceModel) enterDelete() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}

	f := &recordFields{}
	m.fields = f
	m.editingID = r.ID
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Smazat %s %s?", r.Description, FormatAmount(r.Amount, r.Currency))).
				Affirmative("Smazat").
				Negative("Ne").
				Value(&f.confirmDel),
		),
	).WithShowHelp(false)

	m.state = financeStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m FinanceModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = financeStateBrowse
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

	if m.state == financeStateDelete {
		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m *FinanceModel) refresh() {
	var records []finance.Record

	for _, r := range m.finance.List() {
		switch {
		case m.typeIdx == 1 && r.Type != finance.TypeIncome:
			continue
		case m.typeIdx == 2 && r.Type != finance.TypeExpense:
			continue
		}

		records = append(records, r)
	}

	m.records = records

	rows := make([]table.Row, 0, len(m.records))
	for _, r := range m.records {
		rows = append(rows, table.Row{
			r.Date.Display(),
			r.Type.Label(),
			r.Description,
			r.Category,
			FormatAmount(r.Amount, r.Currency),
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m FinanceModel) View() string {
	typeLabels := []string{"Vše", "Příjmy", "Výdaje"}
	header := fmt.Sprintf("[t] Typ: %s", activeStyle(typeLabels[m.typeIdx]))

	var summary []string
	for _, t := range finance.Summarize(m.finance.List()) {
		summary = append(summary, fmt.Sprintf("%s: příjmy %s, výdaje %s, bilance %s",
			t.Currency,
			money.Display(t.Income, ""),
			money.Display(t.Expense, ""),
			money.Display(t.Balance(), ""),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		renderTable(m.table),
		strings.Join(summary, "\n"),
	)

	switch m.state {
	case financeStateForm:
		title := "Nový záznam"
		if m.editingID != "" {
			title = "Upravit záznam"
		}

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(50).Render(title+"\n\n"+m.form.View()))
	case financeStateDelete:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.form.View()))
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m FinanceModel) saveCmd() tea.Cmd {
	f := m.fields
	id := m.editingID

	return func() tea.Msg {
		date, err := timefmt.ParseDate(strings.TrimSpace(f.date))
		if err != nil {
			return savedMsg{err: err}
		}

		amount, err := money.Parse(f.amount)
		if err != nil {
			return savedMsg{err: err}
		}

		params := finance.CreateParams{
			Type:        f.typ,
			Date:        date,
			Description: f.description,
			Category:    f.category,
			Amount:      amount,
			Currency:    strings.ToUpper(strings.TrimSpace(f.currency)),
		}

		ctx, cancel := storeCtx()
		defer cancel()

		if id == "" {
			_, err = m.finance.Create(ctx, params)
			return savedMsg{status: "Záznam přidán.", err: err}
		}

		_, err = m.finance.Update(ctx, id, params)

		return savedMsg{status: "Záznam upraven.", err: err}
	}
}

func (m FinanceModel) deleteCmd() tea.Cmd {
	if !m.fields.confirmDel {
		return func() tea.Msg { return savedMsg{} }
	}

	id := m.editingID

	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		return savedMsg{status: "Záznam smazán.", err: m.finance.Delete(ctx, id)}
	}
}

func (m FinanceModel) exportCmd() tea.Cmd {
	records := m.finance.List()

	return func() tea.Msg {
		path, err := writeFile(m.exportDir, export.FinanceFile, func(w io.Writer) error {
			return m.exporter.Finance(w, records)
		})
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: "Exportováno do " + path}
	}
}
