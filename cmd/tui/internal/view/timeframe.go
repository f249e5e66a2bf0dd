package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

// Timeframe represents a predefined or custom date range selection.
type Timeframe int

const (
	TimeframeToday     Timeframe = 0
	TimeframeThisWeek  Timeframe = 1
	TimeframeThisMonth Timeframe = 2
	TimeframeLastMonth Timeframe = 3
	TimeframeAll       Timeframe = 4
	TimeframeCustom    Timeframe = 5
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeToday:
		return "Dnes"
	case TimeframeThisWeek:
		return "Tento týden"
	case TimeframeThisMonth:
		return "Tento měsíc"
	case TimeframeLastMonth:
		return "Minulý měsíc"
	case TimeframeAll:
		return "Vše"
	case TimeframeCustom:
		return "Vlastní rozsah"
	}

	return "?"
}

// timeframeToDateRange resolves tf against today. Weeks start on Monday.
func timeframeToDateRange(tf Timeframe, today timefmt.Date) (timefmt.Date, timefmt.Date) {
	t := today.Time

	switch tf {
	case TimeframeToday:
		return today, today
	case TimeframeThisWeek:
		offset := int(t.Weekday())
		if offset == 0 {
			offset = 7
		}

		start := t.AddDate(0, 0, -offset+1)

		return timefmt.NewDate(start.Year(), start.Month(), start.Day()), today
	case TimeframeThisMonth:
		return timefmt.NewDate(t.Year(), t.Month(), 1), today
	case TimeframeLastMonth:
		first := timefmt.NewDate(t.Year(), t.Month(), 1).AddDate(0, -1, 0)
		last := first.AddDate(0, 1, -1)

		return timefmt.NewDate(first.Year(), first.Month(), 1), timefmt.NewDate(last.Year(), last.Month(), last.Day())
	}

	return timefmt.Date{}, timefmt.Date{}
}

// TimeframeSelectedMsg is emitted when the user has selected a valid date range.
// Start and End are zero values when All is true.
type TimeframeSelectedMsg struct {
	Label string
	Start timefmt.Date
	End   timefmt.Date
	All   bool
}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker is a reusable component for selecting a date range.
type TimeframePicker struct {
	loc      *time.Location
	state    timeframeState
	selected Timeframe

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

// NewTimeframePicker creates a picker that resolves "today" in loc.
func NewTimeframePicker(loc *time.Location, initial Timeframe) TimeframePicker {
	si := textinput.New()
	si.Placeholder = "RRRR-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Od: "

	ei := textinput.New()
	ei.Placeholder = "RRRR-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "Do: "

	return TimeframePicker{
		loc:        loc,
		state:      timeframeStateSelect,
		selected:   initial,
		startInput: si,
		endInput:   ei,
	}
}

// Update handles messages for the timeframe picker.
func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case timeframeStateSelect:
			return m.updateSelect(msg)
		case timeframeStateCustom:
			if next, cmd, handled := m.updateCustom(msg); handled {
				return next, cmd
			}
		}
	}

	if m.state == timeframeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > TimeframeToday {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == TimeframeCustom {
			m.state = timeframeStateCustom
			m.startInput.Focus()
			m.focusIndex = 0

			return m, textinput.Blink
		}

		selected := m.selected
		if selected == TimeframeAll {
			return m, func() tea.Msg {
				return TimeframeSelectedMsg{Label: selected.String(), All: true}
			}
		}

		start, end := timeframeToDateRange(selected, timefmt.DateOf(time.Now(), m.loc))

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{Label: selected.String(), Start: start, End: end}
		}
	}

	return m, nil
}

func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
			return m, textinput.Blink, true
		}

		m.endInput.Focus()

		return m, textinput.Blink, true

	case "enter":
		start, err := timefmt.ParseDate(m.startInput.Value())
		if err != nil || start.IsZero() {
			m.err = fmt.Errorf("neplatné datum od (RRRR-MM-DD)")
			return m, nil, true
		}

		end, err := timefmt.ParseDate(m.endInput.Value())
		if err != nil || end.IsZero() {
			m.err = fmt.Errorf("neplatné datum do (RRRR-MM-DD)")
			return m, nil, true
		}

		m.err = nil
		label := start.Display() + " - " + end.Display()

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{Label: label, Start: start, End: end}
		}, true

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

func (m TimeframePicker) updateInputs(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	var cmds []tea.Cmd

	var c tea.Cmd

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

// View renders the timeframe picker.
func (m TimeframePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = "\n\n" + errStyle.Render(fmt.Sprintf("Chyba: %v", m.err))
	}

	if m.state == timeframeStateCustom {
		return fmt.Sprintf(
			"Vlastní rozsah:\n\n%s\n%s\n\n(Enter potvrdit, Tab přepnout, Esc zpět)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	s := "Období:\n\n"
	for i := TimeframeToday; i <= TimeframeCustom; i++ {
		cursor := " "
		if m.selected == i {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, i.String())
	}

	s += "\n(Enter vybrat, Esc zpět)"

	return s + errStr
}

// IsSelecting returns true if the picker is in the selection state (not custom input).
func (m TimeframePicker) IsSelecting() bool {
	return m.state == timeframeStateSelect
}

// Reset returns the picker to its selection state.
func (m *TimeframePicker) Reset() {
	m.state = timeframeStateSelect
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
