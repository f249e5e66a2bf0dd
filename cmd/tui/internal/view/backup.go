package view

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/vykazy/internal/backup"
)

type backupState int

const (
	backupStateMenu backupState = iota
	backupStateFilePick
	backupStateConfirmRestore
	backupStateConfirmClear
	backupStateWorking
)

type BackupModel struct {
	CommonModel
	backup    *backup.Service
	exportDir string

	state      backupState
	filePicker filepicker.Model
	path       string
	form       *huh.Form
	confirm    *bool

	status string
	err    error
}

func NewBackupModel(svc *backup.Service, exportDir string) BackupModel {
	fp := filepicker.New()
	fp.CurrentDirectory = exportDir
	fp.AllowedTypes = []string{".json"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return BackupModel{
		backup:     svc,
		exportDir:  exportDir,
		filePicker: fp,
	}
}

func (m BackupModel) Title() string { return "Záloha" }

func (m BackupModel) ShortHelp() string {
	if m.state == backupStateFilePick {
		return "Enter: vybrat | Esc: zpět"
	}

	return "z: zálohovat | o: obnovit | s: smazat vše | Esc: zpět"
}

func (m BackupModel) Init() tea.Cmd {
	return nil
}

func (m BackupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if saved, ok := msg.(savedMsg); ok {
		m.status = saved.status
		m.err = saved.err
		m.state = backupStateMenu
		m.form = nil

		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		if m.state == backupStateMenu {
			return m, Back
		}

		m.state = backupStateMenu
		m.form = nil

		return m, nil
	}

	switch m.state {
	case backupStateMenu:
		return m.updateMenu(msg)
	case backupStateFilePick:
		return m.updateFilePick(msg)
	case backupStateConfirmRestore, backupStateConfirmClear:
		return m.updateConfirm(msg)
	}

	return m, nil
}

func (m BackupModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "z":
		m.state = backupStateWorking
		return m, m.exportCmd()
	case "o":
		if err := os.MkdirAll(m.exportDir, 0o755); err != nil {
			m.err = err
			return m, nil
		}

		m.state = backupStateFilePick

		return m, m.filePicker.Init()
	case "s":
		return m.enterConfirm(backupStateConfirmClear, "Smazat všechna data? Tuto akci nelze vrátit.")
	}

	return m, nil
}

func (m BackupModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.path = path
		return m.enterConfirm(backupStateConfirmRestore,
			fmt.Sprintf("Obnovit data ze souboru %s? Současná data budou nahrazena.", filepath.Base(path)))
	}

	return m, cmd
}

func (m BackupModel) enterConfirm(state backupState, title string) (tea.Model, tea.Cmd) {
	confirm := new(bool)
	m.confirm = confirm
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Ano").
				Negative("Ne").
				Value(confirm),
		),
	).WithWidth(50).WithShowHelp(false)
	m.state = state

	return m, m.form.Init()
}

func (m BackupModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirm {
		m.state = backupStateMenu
		m.form = nil

		return m, nil
	}

	state := m.state
	m.state = backupStateWorking

	if state == backupStateConfirmClear {
		return m, m.clearCmd()
	}

	return m, m.restoreCmd(m.path)
}

func (m BackupModel) View() string {
	var content string

	switch m.state {
	case backupStateFilePick:
		content = fmt.Sprintf("Vyberte zálohu:\n\n%s", m.filePicker.View())
	case backupStateConfirmRestore, backupStateConfirmClear:
		content = panelStyle.Render(m.form.View())
	case backupStateWorking:
		content = "Pracuji..."
	default:
		content = headerStyle.Render("Záloha dat") + "\n\n" +
			"z  Uložit zálohu do " + m.exportDir + "\n" +
			"o  Obnovit ze zálohy\n" +
			"s  Smazat všechna data\n"
	}

	if line := statusLine(m.status, m.err); line != "" {
		content = line + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m BackupModel) exportCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		path, err := writeFile(m.exportDir, backup.FileName(time.Now()), func(w io.Writer) error {
			return m.backup.Export(ctx, w)
		})
		if err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: "Záloha uložena do " + path}
	}
}

func (m BackupModel) restoreCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return savedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := storeCtx()
		defer cancel()

		if err := m.backup.Restore(ctx, f); err != nil {
			return savedMsg{err: err}
		}

		return savedMsg{status: "Data obnovena ze zálohy."}
	}
}

func (m BackupModel) clearCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()

		return savedMsg{status: "Všechna data smazána.", err: m.backup.Clear(ctx)}
	}
}
