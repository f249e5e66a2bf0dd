package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/deduction"
	"github.com/MrJamesThe3rd/vykazy/internal/export"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type DeductionsModel struct {
	CommonModel
	worklog    *worklog.Service
	calculator *deduction.Calculator
	exporter   *export.Service
	exportDir  string

	table table.Model
	rows  []deduction.MonthlyDeduction

	status string
	err    error
}

func NewDeductionsModel(svc *worklog.Service, calc *deduction.Calculator, exporter *export.Service, exportDir string) DeductionsModel {
	t := newTable([]table.Column{
		{Title: "Měsíc", Width: 16},
		{Title: "Osoba", Width: 8},
		{Title: "Hodiny", Width: 10},
		{Title: "Výdělek", Width: 14},
		{Title: "Srážka", Width: 14},
	}, 15)

	m := DeductionsModel{
		worklog:    svc,
		calculator: calc,
		exporter:   exporter,
		exportDir:  exportDir,
		table:      t,
	}
	m.refresh()

	return m
}

func (m DeductionsModel) Title() string { return "Srážky" }

func (m DeductionsModel) ShortHelp() string {
	return "x: export CSV | Esc: zpět"
}

func (m DeductionsModel) Init() tea.Cmd {
	return nil
}

func (m DeductionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.status = msg.status
		m.err = msg.err

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "x":
			return m, m.exportCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DeductionsModel) refresh() {
	m.rows = m.calculator.Calculate(m.worklog.List(worklog.Filter{}))

	rows := make([]table.Row, 0, len(m.rows))
	for _, d := range m.rows {
		rows = append(rows, table.Row{
			timefmt.MonthLabel(d.Year, d.Month),
			d.Person.Title(),
			FormatHours(d.HoursWorked),
			FormatKc(d.GrossEarnings),
			FormatKc(d.Deduction),
		})
	}

	m.table.SetRows(rows)
}

func (m DeductionsModel) View() string {
	var total int64
	for _, d := range m.rows {
		total += d.Deduction
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		renderTable(m.table),
		fmt.Sprintf("Srážky celkem: %s", activeStyle(FormatKc(total))),
	)

	if len(m.rows) == 0 {
		content = faintStyle.Render("Zatím žádné pracovní záznamy.")
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m DeductionsModel) exportCmd() tea.Cmd {
	rows := m.rows

	return func() tea.Msg {
		path, err := writeFile(m.exportDir, export.DeductionsFile, func(w io.Writer) error {
			return m.exporter.Deductions(w, rows)
		})
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: "Exportováno do " + path}
	}
}
