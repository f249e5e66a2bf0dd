package view

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/importer"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
)

const importTimeout = 2 * time.Minute

var layoutLabels = map[string]string{
	"export": "export financí",
	"karta":  "výpis z karty",
	"výpis":  "bankovní výpis",
}

type importState int

const (
	importStatePick importState = iota
	importStateLoading
	importStatePreview
	importStateEdit
	importStateResult
)

// importRow is one previewed record and whether it will be stored.
type importRow struct {
	importer.PreviewRow
	include bool
}

type ImportModel struct {
	CommonModel
	finance  *finance.Service
	importer *importer.Service
	settings *settings.Service

	state  importState
	picker filepicker.Model
	table  table.Model

	path   string
	layout string
	rows   []importRow

	form     *huh.Form
	editing  int
	category *string

	status string
	err    error
}

func NewImportModel(financeSvc *finance.Service, impSvc *importer.Service, settingsSvc *settings.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.AllowedTypes = []string{".csv", ".CSV"}
	fp.SetHeight(15)

	t := newTable([]table.Column{
		{Title: "", Width: 3},
		{Title: "Datum", Width: 11},
		{Title: "Typ", Width: 7},
		{Title: "Popis", Width: 30},
		{Title: "Částka", Width: 14},
		{Title: "Kategorie", Width: 16},
		{Title: "Stav", Width: 9},
	}, 15)

	return ImportModel{
		finance:  financeSvc,
		importer: impSvc,
		settings: settingsSvc,
		picker:   fp,
		table:    t,
		category: new(string),
	}
}

func (m ImportModel) Title() string { return "Import financí" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStatePreview:
		return "Mezerník: zahrnout/vynechat | e: kategorie | Enter: uložit | Esc: zrušit"
	case importStateEdit:
		return "Enter: potvrdit | Esc: zrušit"
	}

	return "Enter: vybrat | Esc: zpět"
}

func (m ImportModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case previewMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err

			return m, nil
		}

		m.layout = msg.preview.Layout
		m.rows = make([]importRow, len(msg.preview.Rows))
		for i, row := range msg.preview.Rows {
			m.rows[i] = importRow{PreviewRow: row, include: row.Existing == nil}
		}

		m.state = importStatePreview
		m.table.SetCursor(0)
		m.refresh()

		return m, nil
	case savedMsg:
		m.state = importStateResult
		m.status = msg.status
		m.err = msg.err

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-14, 5))
	}

	switch m.state {
	case importStatePick:
		return m.updatePick(msg)
	case importStatePreview:
		return m.updatePreview(msg)
	case importStateEdit:
		return m.updateEdit(msg)
	case importStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ImportModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.path = path
		m.state = importStateLoading

		return m, m.previewCmd(path)
	}

	return m, cmd
}

func (m ImportModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.state = importStatePick
		m.rows = nil

		return m, m.picker.Init()
	case " ":
		if i := m.table.Cursor(); i < len(m.rows) {
			m.rows[i].include = !m.rows[i].include
			m.refresh()
		}

		return m, nil
	case "e":
		return m.enterEdit()
	case "enter":
		return m, m.saveCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ImportModel) enterEdit() (tea.Model, tea.Cmd) {
	i := m.table.Cursor()
	if i >= len(m.rows) {
		return m, nil
	}

	row := m.rows[i]
	m.editing = i
	*m.category = row.Params.Category

	var suggestions []string
	if row.Params.Type == finance.TypeExpense {
		suggestions = m.settings.ExpenseCategories()
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kategorie").
				Description(row.Params.Description).
				Suggestions(suggestions).
				Value(m.category),
		),
	)
	m.state = importStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ImportModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.leaveEdit()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	row := &m.rows[m.editing]
	row.Params.Category = *m.category
	row.Suggested = false

	m.leaveEdit()
	m.refresh()

	return m, nil
}

func (m *ImportModel) leaveEdit() {
	m.state = importStatePreview
	m.form = nil
	m.table.Focus()
}

func (m *ImportModel) refresh() {
	rows := make([]table.Row, 0, len(m.rows))

	for _, r := range m.rows {
		mark := "[ ]"
		if r.include {
			mark = "[x]"
		}

		category := r.Params.Category
		if r.Suggested {
			category += " *"
		}

		state := "nový"
		if r.Existing != nil {
			state = "duplicita"
		}

		rows = append(rows, table.Row{
			mark,
			r.Params.Date.Display(),
			r.Params.Type.Label(),
			r.Params.Description,
			FormatAmount(r.Params.Amount, r.Params.Currency),
			category,
			state,
		})
	}

	m.table.SetRows(rows)
}

func (m ImportModel) View() string {
	var content string

	switch m.state {
	case importStatePick:
		content = "Vyberte CSV soubor:\n\n" + m.picker.View()
	case importStateLoading:
		content = fmt.Sprintf("Načítám %s...", m.path)
	case importStatePreview, importStateEdit:
		content = m.viewPreview()
	case importStateResult:
		content = statusLine(m.status, m.err)
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m ImportModel) viewPreview() string {
	layout, ok := layoutLabels[m.layout]
	if !ok {
		layout = m.layout
	}

	included, dups := 0, 0

	for _, r := range m.rows {
		if r.include {
			included++
		}

		if r.Existing != nil {
			dups++
		}
	}

	header := fmt.Sprintf("Formát: %s | řádků %d, duplicit %d, k uložení %d",
		activeStyle(layout), len(m.rows), dups, included)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		renderTable(m.table),
		faintStyle.Render("* kategorie doplněná podle dřívějších záznamů"),
	)

	if m.state == importStateEdit {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(40).Render(m.form.View()))
	}

	return content
}

type previewMsg struct {
	preview *importer.Preview
	err     error
}

func (m ImportModel) previewCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return previewMsg{err: err}
		}
		defer f.Close()

		preview, err := m.importer.Preview(importer.SourceCSV, f)

		return previewMsg{preview: preview, err: err}
	}
}

func (m ImportModel) saveCmd() tea.Cmd {
	var params []finance.CreateParams

	for _, r := range m.rows {
		if r.include {
			params = append(params, r.Params)
		}
	}

	return func() tea.Msg {
		if len(params) == 0 {
			return savedMsg{status: "Nic k uložení."}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		recs, err := m.finance.CreateBatch(ctx, params)
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: fmt.Sprintf("Importováno %d záznamů.", len(recs))}
	}
}
