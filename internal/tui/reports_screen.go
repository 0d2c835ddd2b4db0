package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/obligation"
	tea "github.com/charmbracelet/bubbletea"
)

// ReportsModel breaks the outstanding amounts down by status, Mahnstufe,
// category and company, for the current ledger or all ledgers
type ReportsModel struct {
	session *session
	all     bool
	stats   *obligation.Stats

	loading bool
	err     error
}

type reportsDataMsg struct {
	stats *obligation.Stats
	err   error
}

// NewReportsModel creates a new reports screen model
func NewReportsModel(s *session) tea.Model {
	return &ReportsModel{
		session: s,
		loading: true,
	}
}

func (m *ReportsModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *ReportsModel) loadData() tea.Cmd {
	ledger := m.session.ledger
	if m.all {
		ledger = ""
	}
	return func() tea.Msg {
		stats, err := m.session.app.ReportService.Stats(context.Background(), ledger)
		return reportsDataMsg{stats: stats, err: err}
	}
}

func (m *ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.stats = msg.stats
		}
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case tea.KeyMsg:
		if msg.String() == "a" {
			m.all = !m.all
			m.loading = true
			return m, m.loadData()
		}
	}

	return m, nil
}

func (m *ReportsModel) View() string {
	if m.loading && m.stats == nil {
		return "Loading reports..."
	}

	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	scope := m.session.current().Name
	if m.all {
		scope = "All ledgers"
	}

	stats := m.stats
	s := titleStyle.Render("Outstanding - "+scope) + "\n\n"
	s += fmt.Sprintf("  %d open invoice(s), %s outstanding\n", stats.Total.Count, amountStyle.Render(formatMoney(stats.Total.Outstanding)))
	s += fmt.Sprintf("  %d overdue, %d due today, %d due soon, %d critical\n\n",
		len(stats.Overdue), len(stats.DueToday), len(stats.DueSoon), len(stats.Critical))

	byStatus := make(map[string]obligation.Bucket, len(stats.ByStatus))
	for _, status := range domain.AllStatuses {
		if b, ok := stats.ByStatus[status]; ok {
			byStatus[string(status)] = b
		}
	}
	s += renderBuckets("By status", byStatus, statusOrder())

	byLevel := make(map[string]obligation.Bucket, len(stats.ByDunningLevel))
	for level, b := range stats.ByDunningLevel {
		byLevel[strconv.Itoa(level)] = b
	}
	s += renderBuckets("By Mahnstufe", byLevel, nil)
	s += renderBuckets("By category", stats.ByCategory, nil)
	s += renderBuckets("By company", stats.ByCompany, nil)

	s += helpStyle.Render("  a: toggle current ledger / all ledgers")
	return s
}

func statusOrder() []string {
	order := make([]string, 0, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		order = append(order, string(s))
	}
	return order
}

// renderBuckets prints buckets in the given key order, or sorted by key
func renderBuckets(title string, buckets map[string]obligation.Bucket, order []string) string {
	s := labelStyle.Render(title) + "\n"
	if len(buckets) == 0 {
		return s + subtitleStyle.Render("  none") + "\n\n"
	}

	if order == nil {
		for k := range buckets {
			order = append(order, k)
		}
		sort.Strings(order)
	}

	for _, k := range order {
		b, ok := buckets[k]
		if !ok {
			continue
		}
		label := k
		if label == "" {
			label = "(none)"
		}
		s += fmt.Sprintf("  %-22s %4d %16s\n", truncateStr(label, 22), b.Count, formatMoney(b.Outstanding))
	}
	return s + "\n"
}
