package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/andy/rechnungsbuch/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel represents the overview home screen
type DashboardModel struct {
	session *session

	// Data
	ledger      *obligation.Stats
	all         *obligation.Stats
	perLedger   map[string]obligation.Bucket
	inspections []*service.TaskStatus

	loading bool
	err     error
}

type dashboardDataMsg struct {
	ledger      *obligation.Stats
	all         *obligation.Stats
	perLedger   map[string]obligation.Bucket
	inspections []*service.TaskStatus
	err         error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(s *session) tea.Model {
	return &DashboardModel{
		session: s,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	ledgerKey := m.session.ledger
	return func() tea.Msg {
		ctx := context.Background()
		a := m.session.app
		msg := dashboardDataMsg{perLedger: make(map[string]obligation.Bucket)}

		var err error
		if msg.ledger, err = a.ReportService.Stats(ctx, ledgerKey); err != nil {
			msg.err = fmt.Errorf("ledger stats: %w", err)
			return msg
		}
		if msg.all, err = a.ReportService.Stats(ctx, ""); err != nil {
			msg.err = fmt.Errorf("stats: %w", err)
			return msg
		}
		for _, l := range a.Config.Ledgers {
			stats, err := a.ReportService.Stats(ctx, l.Key)
			if err != nil {
				msg.err = fmt.Errorf("stats for %s: %w", l.Key, err)
				return msg
			}
			msg.perLedger[l.Key] = stats.Total
		}

		if msg.inspections, err = a.InspectionService.OverdueAll(ctx); err != nil {
			msg.err = fmt.Errorf("inspections: %w", err)
		}
		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.ledger = msg.ledger
		m.all = msg.all
		m.perLedger = msg.perLedger
		m.inspections = msg.inspections
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading overview..."
	}

	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var s string

	current := m.session.current()
	s += fmt.Sprintf("  %-14s %3d open  %s\n", truncateStr(current.Name, 14), m.ledger.Total.Count,
		amountStyle.Render(formatMoney(m.ledger.Total.Outstanding)))
	s += fmt.Sprintf("  %-14s %3d open  %s\n", "All ledgers", m.all.Total.Count,
		amountStyle.Render(formatMoney(m.all.Total.Outstanding)))

	var ledgers []string
	for _, l := range m.session.app.Config.Ledgers {
		b := m.perLedger[l.Key]
		ledgers = append(ledgers, fmt.Sprintf("%s: %s", l.Name, formatMoney(b.Outstanding)))
	}
	s += subtitleStyle.Render("  "+strings.Join(ledgers, "  |  ")) + "\n"

	s += "\n" + m.renderInspections()

	s += "\n" + renderEntryList("Overdue", m.ledger.Overdue, overdueStyle, 6)
	s += "\n" + renderEntryList("Due today", m.ledger.DueToday, dueStyle, 4)
	s += "\n" + renderEntryList(fmt.Sprintf("Due within %d days", m.session.app.Config.Invoices.DueSoonDays), m.ledger.DueSoon, okStyle, 6)
	if len(m.all.Critical) > 0 {
		s += "\n" + renderEntryList("Critical (all ledgers)", m.all.Critical, criticalStyle, 5)
	}

	return s
}

func (m *DashboardModel) renderInspections() string {
	s := "  Begehungen\n"
	for _, t := range m.inspections {
		var state string
		switch {
		case t.ActiveRun != nil:
			done, total := t.ActiveRun.Progress()
			state = dueStyle.Render(fmt.Sprintf("in progress %d/%d", done, total))
		case t.NeverRun:
			state = overdueStyle.Render("never done")
		case t.IsOverdue:
			state = overdueStyle.Render(fmt.Sprintf("%d day(s) overdue", t.DaysOverdue))
		default:
			state = okStyle.Render(fmt.Sprintf("ok, last %d day(s) ago", t.DaysSince))
		}
		s += fmt.Sprintf("  %-14s %s\n", t.Cadence, state)
	}
	return s
}

// renderEntryList prints a titled list of invoices with their outstanding amounts
func renderEntryList(title string, entries []obligation.Entry, style lipgloss.Style, limit int) string {
	header := fmt.Sprintf("  %s (%d)\n", title, len(entries))
	if len(entries) == 0 {
		return header + subtitleStyle.Render("  none") + "\n"
	}

	s := style.Render(strings.TrimSuffix(header, "\n")) + "\n"
	for i, e := range entries {
		if i == limit {
			s += subtitleStyle.Render(fmt.Sprintf("  ... %d more", len(entries)-limit)) + "\n"
			break
		}
		s += fmt.Sprintf("  %-10s %-30s %14s  %s\n",
			truncateStr(e.Invoice.Ledger, 10),
			truncateStr(e.Invoice.Title, 30),
			formatMoney(e.State.Outstanding),
			dueLabel(e.State),
		)
	}
	return s
}
