package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rechnungsbuch/internal/app"
	"github.com/andy/rechnungsbuch/internal/config"
	"github.com/andy/rechnungsbuch/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenInvoices
	ScreenContacts
	ScreenInspections
	ScreenReports
	ScreenSettings
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "Overview"
	case ScreenInvoices:
		return "Invoices"
	case ScreenContacts:
		return "Contacts"
	case ScreenInspections:
		return "Inspections"
	case ScreenReports:
		return "Reports"
	case ScreenSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// session is shared by all screens so a ledger switch reaches each of them
type session struct {
	app    *app.App
	ledger string
}

func newSession(a *app.App, ledger string) *session {
	if l, err := a.Config.Ledger(ledger); err == nil {
		ledger = l.Key
	}
	return &session{app: a, ledger: ledger}
}

// invoices returns the invoice service of the selected ledger
func (s *session) invoices() (service.InvoiceService, error) {
	return s.app.Invoices(s.ledger)
}

// current returns the selected ledger's config
func (s *session) current() config.LedgerConfig {
	l, err := s.app.Config.Ledger(s.ledger)
	if err != nil {
		return config.LedgerConfig{Key: s.ledger, Name: s.ledger}
	}
	return l
}

// next selects the following configured ledger, wrapping around
func (s *session) next() {
	ledgers := s.app.Config.Ledgers
	for i, l := range ledgers {
		if l.Key == s.ledger {
			s.ledger = ledgers[(i+1)%len(ledgers)].Key
			return
		}
	}
	if len(ledgers) > 0 {
		s.ledger = ledgers[0].Key
	}
}

// Model is the root Bubble Tea model
type Model struct {
	session       *session
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	dashboard   tea.Model
	invoices    tea.Model
	contacts    tea.Model
	inspections tea.Model
	reports     tea.Model
	settings    tea.Model

	// First-run state
	checkedFirstRun bool

	err error
}

// New creates a new root model showing the given ledger
func New(a *app.App, ledger string) Model {
	s := newSession(a, ledger)
	return Model{
		session:       s,
		currentScreen: ScreenDashboard,
		dashboard:     NewDashboardModel(s),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.checkFirstRun(),
	}
	if m.dashboard != nil {
		cmds = append(cmds, m.dashboard.Init())
	}
	return tea.Batch(cmds...)
}

// checkFirstRun checks if any contacts exist in the database
func (m *Model) checkFirstRun() tea.Cmd {
	return func() tea.Msg {
		contacts, err := m.session.app.ContactRepo.List(context.Background(), true)
		if err != nil {
			return firstRunCheckMsg{hasContacts: true} // assume yes on error
		}
		return firstRunCheckMsg{hasContacts: len(contacts) > 0}
	}
}

func refreshCmd() tea.Msg { return RefreshDataMsg{} }

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	slot := m.screenSlot(screen)
	if slot == nil {
		return nil
	}
	if *slot == nil {
		switch screen {
		case ScreenDashboard:
			*slot = NewDashboardModel(m.session)
		case ScreenInvoices:
			*slot = NewInvoicesModel(m.session)
		case ScreenContacts:
			*slot = NewContactsModel(m.session)
		case ScreenInspections:
			*slot = NewInspectionsModel(m.session)
		case ScreenReports:
			*slot = NewReportsModel(m.session)
		case ScreenSettings:
			*slot = NewSettingsModel(m.session)
		}
		return (*slot).Init()
	}
	return refreshCmd
}

// screenSlot returns the field holding the given screen's model
func (m *Model) screenSlot(screen Screen) *tea.Model {
	switch screen {
	case ScreenDashboard:
		return &m.dashboard
	case ScreenInvoices:
		return &m.invoices
	case ScreenContacts:
		return &m.contacts
	case ScreenInspections:
		return &m.inspections
	case ScreenReports:
		return &m.reports
	case ScreenSettings:
		return &m.settings
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	slot := m.screenSlot(m.currentScreen)
	if slot == nil {
		return false
	}
	if ic, ok := (*slot).(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

func (m *Model) switchTo(screen Screen) tea.Cmd {
	m.currentScreen = screen
	m.err = nil
	return m.initScreen(screen)
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				return m, tea.Quit
			case key.Matches(msg, DefaultKeyMap.Overview):
				return m, m.switchTo(ScreenDashboard)
			case key.Matches(msg, DefaultKeyMap.Invoices):
				return m, m.switchTo(ScreenInvoices)
			case key.Matches(msg, DefaultKeyMap.Contacts):
				return m, m.switchTo(ScreenContacts)
			case key.Matches(msg, DefaultKeyMap.Inspections):
				return m, m.switchTo(ScreenInspections)
			case key.Matches(msg, DefaultKeyMap.Reports):
				return m, m.switchTo(ScreenReports)
			case key.Matches(msg, DefaultKeyMap.Settings):
				return m, m.switchTo(ScreenSettings)
			case key.Matches(msg, DefaultKeyMap.Ledger):
				m.session.next()
				m.err = nil
				return m, func() tea.Msg { return LedgerChangedMsg{Ledger: m.session.ledger} }
			}
		}

	case firstRunCheckMsg:
		if !m.checkedFirstRun && !msg.hasContacts {
			m.checkedFirstRun = true
			initCmd := m.switchTo(ScreenContacts)
			openFormCmd := func() tea.Msg { return OpenNewContactFormMsg{} }
			return m, tea.Batch(initCmd, openFormCmd)
		}
		m.checkedFirstRun = true
		return m, nil

	case LedgerChangedMsg:
		return m.routeToScreen(RefreshDataMsg{})

	case SwitchScreenMsg:
		return m, m.switchTo(msg.Screen)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	return m.routeToScreen(msg)
}

// routeToScreen forwards a message to the current screen
func (m Model) routeToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if slot := m.screenSlot(m.currentScreen); slot != nil && *slot != nil {
		*slot, cmd = (*slot).Update(msg)
	}
	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	ledger := m.session.current()
	header := headerStyle.Render(fmt.Sprintf("rechnungsbuch - %s - %s", m.currentScreen.String(), ledger.Name)) +
		ledgerKindStyle.Render(fmt.Sprintf(" (%s)", ledger.Kind))

	footer := footerStyle.Render("[O]verview  [I]nvoices  [C]ontacts  [B]egehungen  [R]eports  [L]edger  [,] Settings  [Q]uit")

	content := "Loading..."
	if slot := m.screenSlot(m.currentScreen); slot != nil && *slot != nil {
		content = (*slot).View()
	}

	errorDisplay := ""
	if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI on the given ledger; an empty key selects the first one
func Run(a *app.App, ledger string) error {
	p := tea.NewProgram(New(a, ledger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
