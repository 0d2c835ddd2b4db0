package tui

import (
	"fmt"
	"strconv"

	"github.com/andy/rechnungsbuch/internal/config"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldPrefix = iota
	settingsFieldDueDays
	settingsFieldDueSoon
	settingsFieldCritical
	settingsFieldDaily
	settingsFieldWeekly
	settingsFieldMonthly
	settingsFieldCount
)

var settingsLabels = []string{
	"Reference Prefix:", "Default Due Days:", "Due Soon Window (days):", "Critical After (days overdue):",
	"Daily Inspection Threshold:", "Weekly Inspection Threshold:", "Monthly Inspection Threshold:",
}

type settingsSavedMsg struct {
	err error
}

// SettingsModel shows the configured ledgers and edits invoice and
// inspection thresholds
type SettingsModel struct {
	session   *session
	mode      settingsMode
	form      *form
	cursor    int
	err       error
	statusMsg string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(s *session) tea.Model {
	return &SettingsModel{
		session: s,
		mode:    settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func (m *SettingsModel) openForm() tea.Cmd {
	cfg := m.session.app.Config
	fields := make([]textinput.Model, settingsFieldCount)

	fields[settingsFieldPrefix] = newInput("RE", 20, 20)
	fields[settingsFieldPrefix].SetValue(cfg.Invoices.ReferencePrefix)

	days := []struct {
		field int
		value int
	}{
		{settingsFieldDueDays, cfg.Invoices.DefaultDueDays},
		{settingsFieldDueSoon, cfg.Invoices.DueSoonDays},
		{settingsFieldCritical, cfg.Invoices.CriticalOverdueDays},
		{settingsFieldDaily, cfg.Inspections.DailyThresholdDays},
		{settingsFieldWeekly, cfg.Inspections.WeeklyThresholdDays},
		{settingsFieldMonthly, cfg.Inspections.MonthlyThresholdDays},
	}
	for _, d := range days {
		fields[d.field] = newInput("days", 5, 10)
		fields[d.field].SetValue(strconv.Itoa(d.value))
	}

	m.form = newForm(settingsLabels, fields)
	m.mode = settingsModeEdit
	m.statusMsg = ""
	return m.form.start()
}

func (m *SettingsModel) saveSettings() tea.Cmd {
	f := m.form
	return func() tea.Msg {
		prefix := f.value(settingsFieldPrefix)
		if prefix == "" {
			return settingsSavedMsg{err: fmt.Errorf("reference prefix is required")}
		}

		values := make(map[int]int, settingsFieldCount)
		for i := settingsFieldDueDays; i < settingsFieldCount; i++ {
			n, err := strconv.Atoi(f.value(i))
			if err != nil || n < 0 {
				return settingsSavedMsg{err: fmt.Errorf("%s must be a non-negative number", settingsLabels[i])}
			}
			values[i] = n
		}

		// Validate a copy so a rejected edit leaves the live config untouched
		updated := *m.session.app.Config
		updated.Invoices = config.InvoiceConfig{
			ReferencePrefix:     prefix,
			DefaultDueDays:      values[settingsFieldDueDays],
			DueSoonDays:         values[settingsFieldDueSoon],
			CriticalOverdueDays: values[settingsFieldCritical],
		}
		updated.Inspections = config.InspectionConfig{
			DailyThresholdDays:   values[settingsFieldDaily],
			WeeklyThresholdDays:  values[settingsFieldWeekly],
			MonthlyThresholdDays: values[settingsFieldMonthly],
		}
		if err := updated.Validate(); err != nil {
			return settingsSavedMsg{err: err}
		}

		*m.session.app.Config = updated
		if err := m.session.app.SaveConfig(); err != nil {
			return settingsSavedMsg{err: fmt.Errorf("failed to save config: %w", err)}
		}

		return settingsSavedMsg{}
	}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if saved, ok := msg.(settingsSavedMsg); ok {
		if saved.err != nil {
			m.err = saved.err
			return m, nil
		}
		m.mode = settingsModeView
		m.err = nil
		m.statusMsg = "Settings saved. Thresholds apply on next start."
		return m, nil
	}

	if m.mode == settingsModeEdit {
		result, cmd := m.form.update(msg)
		switch result {
		case formSubmit:
			return m, m.saveSettings()
		case formCancel:
			m.mode = settingsModeView
			m.err = nil
			return m, nil
		}
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.err = nil
	ledgers := m.session.app.Config.Ledgers
	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(ledgers)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.Select):
		if m.cursor < len(ledgers) {
			m.session.ledger = ledgers[m.cursor].Key
			m.statusMsg = fmt.Sprintf("Switched to %s", ledgers[m.cursor].Name)
			ledger := m.session.ledger
			return m, func() tea.Msg { return LedgerChangedMsg{Ledger: ledger} }
		}
	case keyMsg.String() == "e":
		return m, m.openForm()
	}

	return m, nil
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		s := titleStyle.Render("Edit Settings") + "\n\n" + m.form.View()
		if m.err != nil {
			s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
		}
		return s + helpStyle.Render(formHelp)
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	cfg := m.session.app.Config

	nameStyle := lipgloss.NewStyle().Bold(true).Width(32)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)

	s += subtitleStyle.Render("  Ledgers") + "\n\n"
	for i, l := range cfg.Ledgers {
		marker := " "
		if l.Key == m.session.ledger {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-10s %-20s %s", marker, l.Key, l.Name, l.Kind)
		if i == m.cursor {
			s += selectedStyle.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s\n", nameStyle.Render(label), valueStyle.Render(value))
	}

	s += "\n" + subtitleStyle.Render("  Invoices") + "\n\n"
	s += row("Reference Prefix:", cfg.Invoices.ReferencePrefix)
	s += row("Default Due Days:", strconv.Itoa(cfg.Invoices.DefaultDueDays))
	s += row("Due Soon Window (days):", strconv.Itoa(cfg.Invoices.DueSoonDays))
	s += row("Critical After (days overdue):", strconv.Itoa(cfg.Invoices.CriticalOverdueDays))

	s += "\n" + subtitleStyle.Render("  Inspections (days until overdue)") + "\n\n"
	s += row("Daily:", strconv.Itoa(cfg.Inspections.DailyThresholdDays))
	s += row("Weekly:", strconv.Itoa(cfg.Inspections.WeeklyThresholdDays))
	s += row("Monthly:", strconv.Itoa(cfg.Inspections.MonthlyThresholdDays))

	s += "\n" + subtitleStyle.Render("  Database") + "\n\n"
	s += row("Path:", cfg.Database.Path)

	if m.err != nil {
		s += "\n" + errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: choose ledger  enter: switch ledger  e: edit settings")

	return s
}
