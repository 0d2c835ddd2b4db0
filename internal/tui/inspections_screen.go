package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type inspectionMode int

const (
	inspectionModeOverview inspectionMode = iota
	inspectionModeRun                     // Working through an active run
	inspectionModeItemForm                // Adding a checklist item
	inspectionModeCloseForm               // Notes for completing or aborting a run
)

// InspectionsModel shows the overdue state of each cadence and drives runs
type InspectionsModel struct {
	session  *session
	mode     inspectionMode
	statuses []*service.TaskStatus
	items    map[domain.Cadence][]*domain.ChecklistItem
	history  []*domain.InspectionRun
	cursor   int

	run        *domain.InspectionRun
	itemCursor int

	form     *form
	aborting bool // close form aborts instead of completing

	loading   bool
	err       error
	statusMsg string
}

type inspectionsDataMsg struct {
	statuses []*service.TaskStatus
	items    map[domain.Cadence][]*domain.ChecklistItem
	history  []*domain.InspectionRun
	err      error
}

// runMsg carries a run after it was started, loaded or changed
type runMsg struct {
	run    *domain.InspectionRun
	status string
	err    error
}

type historyMsg struct {
	history []*domain.InspectionRun
}

type inspectionActionMsg struct {
	status string
	err    error
}

// NewInspectionsModel creates a new inspections screen model
func NewInspectionsModel(s *session) tea.Model {
	return &InspectionsModel{
		session: s,
		items:   make(map[domain.Cadence][]*domain.ChecklistItem),
		loading: true,
	}
}

// IsCapturingInput returns true while a form is open
func (m *InspectionsModel) IsCapturingInput() bool {
	return m.mode == inspectionModeItemForm || m.mode == inspectionModeCloseForm
}

func (m *InspectionsModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *InspectionsModel) selectedCadence() domain.Cadence {
	if m.cursor < len(domain.AllCadences) {
		return domain.AllCadences[m.cursor]
	}
	return domain.CadenceDaily
}

func (m *InspectionsModel) loadData() tea.Cmd {
	cadence := m.selectedCadence()
	return func() tea.Msg {
		ctx := context.Background()
		svc := m.session.app.InspectionService

		statuses, err := svc.OverdueAll(ctx)
		if err != nil {
			return inspectionsDataMsg{err: err}
		}

		all, err := svc.ListItems(ctx, nil, false)
		if err != nil {
			return inspectionsDataMsg{err: err}
		}
		items := make(map[domain.Cadence][]*domain.ChecklistItem)
		for _, item := range all {
			items[item.Cadence] = append(items[item.Cadence], item)
		}

		history, err := svc.History(ctx, cadence, 5)
		if err != nil {
			return inspectionsDataMsg{err: err}
		}

		return inspectionsDataMsg{statuses: statuses, items: items, history: history}
	}
}

func (m *InspectionsModel) loadHistory() tea.Cmd {
	cadence := m.selectedCadence()
	return func() tea.Msg {
		history, err := m.session.app.InspectionService.History(context.Background(), cadence, 5)
		if err != nil {
			return inspectionsDataMsg{err: err}
		}
		return historyMsg{history: history}
	}
}

// openRun resumes the cadence's active run or starts a new one
func (m *InspectionsModel) openRun(cadence domain.Cadence, start bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		svc := m.session.app.InspectionService

		run, err := svc.ActiveRun(ctx, cadence)
		if err != nil {
			return runMsg{err: err}
		}
		if run != nil {
			return runMsg{run: run}
		}
		if !start {
			return runMsg{err: fmt.Errorf("no inspection in progress for %s, press 's' to start one", cadence)}
		}

		run, err = svc.StartRun(ctx, cadence)
		if err != nil {
			return runMsg{err: err}
		}
		return runMsg{run: run, status: fmt.Sprintf("Started %s inspection with %d item(s)", cadence, len(run.Items))}
	}
}

func (m *InspectionsModel) toggleItem(item *domain.RunItem) tea.Cmd {
	runID := m.run.ID
	return func() tea.Msg {
		ctx := context.Background()
		svc := m.session.app.InspectionService

		var err error
		if item.IsDone {
			_, err = svc.UncheckItem(ctx, runID, item.ID)
		} else {
			_, err = svc.CheckItem(ctx, runID, item.ID, "")
		}
		if err != nil {
			return runMsg{err: err}
		}

		run, err := svc.GetRun(ctx, runID)
		return runMsg{run: run, err: err}
	}
}

func (m *InspectionsModel) closeRun(notes string, abort bool) tea.Cmd {
	runID := m.run.ID
	return func() tea.Msg {
		svc := m.session.app.InspectionService
		ctx := context.Background()

		if abort {
			run, err := svc.AbortRun(ctx, runID, notes)
			if err != nil {
				return inspectionActionMsg{err: err}
			}
			return inspectionActionMsg{status: fmt.Sprintf("Aborted %s inspection", run.Cadence)}
		}

		run, err := svc.CompleteRun(ctx, runID, notes)
		if err != nil {
			return inspectionActionMsg{err: err}
		}
		done, total := run.Progress()
		return inspectionActionMsg{status: fmt.Sprintf("Completed %s inspection (%d/%d checked)", run.Cadence, done, total)}
	}
}

func (m *InspectionsModel) addItem(cadence domain.Cadence, title, description, order string) tea.Cmd {
	return func() tea.Msg {
		var sortOrder *int
		if order != "" {
			n, err := strconv.Atoi(order)
			if err != nil {
				return inspectionActionMsg{err: fmt.Errorf("invalid order %q", order)}
			}
			sortOrder = &n
		}

		item, err := m.session.app.InspectionService.AddItem(context.Background(), title, description, cadence, sortOrder)
		if err != nil {
			return inspectionActionMsg{err: err}
		}
		return inspectionActionMsg{status: fmt.Sprintf("Added checklist item: %s", item.Title)}
	}
}

func (m *InspectionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		if m.IsCapturingInput() {
			return m, nil
		}
		m.loading = true
		if m.mode == inspectionModeRun && m.run != nil {
			return m, tea.Batch(m.loadData(), m.openRun(m.run.Cadence, false))
		}
		return m, m.loadData()

	case inspectionsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.statuses = msg.statuses
			m.items = msg.items
			m.history = msg.history
		}
		return m, nil

	case historyMsg:
		m.history = msg.history
		return m, nil

	case runMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.run = msg.run
		if msg.status != "" {
			m.statusMsg = msg.status
		}
		if m.itemCursor >= len(m.run.Items) {
			m.itemCursor = max(0, len(m.run.Items)-1)
		}
		m.mode = inspectionModeRun
		return m, nil

	case inspectionActionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.statusMsg = msg.status
		m.mode = inspectionModeOverview
		m.run = nil
		m.loading = true
		return m, m.loadData()
	}

	switch m.mode {
	case inspectionModeItemForm, inspectionModeCloseForm:
		return m.updateForm(msg)
	case inspectionModeRun:
		return m.updateRun(msg)
	}
	return m.updateOverview(msg)
}

func (m *InspectionsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	result, cmd := m.form.update(msg)
	switch result {
	case formSubmit:
		if m.mode == inspectionModeItemForm {
			return m, m.addItem(m.selectedCadence(), m.form.value(0), m.form.value(1), m.form.value(2))
		}
		return m, m.closeRun(m.form.value(0), m.aborting)
	case formCancel:
		m.err = nil
		if m.mode == inspectionModeCloseForm {
			m.mode = inspectionModeRun
		} else {
			m.mode = inspectionModeOverview
		}
		return m, nil
	}
	return m, cmd
}

func (m *InspectionsModel) updateOverview(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.loading {
		return m, nil
	}

	m.statusMsg = ""
	m.err = nil

	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
			return m, m.loadHistory()
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(domain.AllCadences)-1 {
			m.cursor++
			return m, m.loadHistory()
		}
	case key.Matches(keyMsg, DefaultKeyMap.Select):
		return m, m.openRun(m.selectedCadence(), false)
	case keyMsg.String() == "s":
		return m, m.openRun(m.selectedCadence(), true)
	case key.Matches(keyMsg, DefaultKeyMap.New):
		m.form = newForm(
			[]string{"Title:", "Description:", "Order:"},
			[]textinput.Model{
				newInput("Fenster geschlossen", 120, 40),
				newInput("optional", 200, 50),
				newInput("empty = append", 4, 8),
			},
		)
		m.mode = inspectionModeItemForm
		return m, m.form.start()
	}
	return m, nil
}

func (m *InspectionsModel) updateRun(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.run == nil {
		return m, nil
	}

	m.statusMsg = ""
	m.err = nil

	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Back):
		m.mode = inspectionModeOverview
		m.loading = true
		return m, m.loadData()
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.itemCursor > 0 {
			m.itemCursor--
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.itemCursor < len(m.run.Items)-1 {
			m.itemCursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.Toggle), key.Matches(keyMsg, DefaultKeyMap.Select):
		if m.itemCursor < len(m.run.Items) {
			return m, m.toggleItem(m.run.Items[m.itemCursor])
		}
	case keyMsg.String() == "f", keyMsg.String() == "x":
		m.aborting = keyMsg.String() == "x"
		label := "Notes:"
		if m.aborting {
			label = "Reason for aborting:"
		}
		m.form = newForm([]string{label}, []textinput.Model{newInput("optional", 200, 50)})
		m.mode = inspectionModeCloseForm
		return m, m.form.start()
	}
	return m, nil
}

func (m *InspectionsModel) View() string {
	switch m.mode {
	case inspectionModeItemForm:
		return titleStyle.Render(fmt.Sprintf("New %s checklist item", m.selectedCadence())) + "\n\n" +
			m.form.View() + m.viewErr() + helpStyle.Render(formHelp)
	case inspectionModeCloseForm:
		title := "Complete inspection"
		if m.aborting {
			title = "Abort inspection"
		}
		return titleStyle.Render(title) + "\n\n" + m.form.View() + m.viewErr() + helpStyle.Render(formHelp)
	case inspectionModeRun:
		return m.viewRun()
	}
	return m.viewOverview()
}

func (m *InspectionsModel) viewErr() string {
	if m.err == nil {
		return ""
	}
	return errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
}

func (m *InspectionsModel) viewOverview() string {
	if m.loading && len(m.statuses) == 0 {
		return "Loading inspections..."
	}

	s := titleStyle.Render("Begehungen") + "\n\n"
	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	s += m.viewErr()

	for i, t := range m.statuses {
		var state string
		switch {
		case t.NeverRun:
			state = overdueStyle.Render("never done")
		case t.IsOverdue:
			state = overdueStyle.Render(fmt.Sprintf("%d day(s) overdue", t.DaysOverdue))
		default:
			state = okStyle.Render(fmt.Sprintf("ok (last %d day(s) ago)", t.DaysSince))
		}
		if t.ActiveRun != nil {
			done, total := t.ActiveRun.Progress()
			state += dueStyle.Render(fmt.Sprintf("  in progress %d/%d", done, total))
		}

		line := fmt.Sprintf("%-14s %2d item(s)  every %2d day(s)  ", t.Cadence, len(m.items[t.Cadence]), t.ThresholdDays)
		if i == m.cursor {
			s += selectedStyle.Render("> "+line) + state + "\n"
		} else {
			s += "  " + line + state + "\n"
		}
	}

	cadence := m.selectedCadence()
	s += "\n" + labelStyle.Render(fmt.Sprintf("Checklist (%s)", cadence)) + "\n"
	if len(m.items[cadence]) == 0 {
		s += subtitleStyle.Render("  No items. Press 'n' to add one.") + "\n"
	}
	for _, item := range m.items[cadence] {
		s += fmt.Sprintf("  %3d  %s\n", item.SortOrder, truncateStr(item.Title, 60))
	}

	s += "\n" + labelStyle.Render("Recent runs") + "\n"
	if len(m.history) == 0 {
		s += subtitleStyle.Render("  none") + "\n"
	}
	for _, run := range m.history {
		done, total := run.Progress()
		s += fmt.Sprintf("  %s  %-14s %d/%d  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"), run.Status, done, total, truncateStr(run.Notes, 40))
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: open run  s: start/resume  n: new item")
	return s
}

func (m *InspectionsModel) viewRun() string {
	run := m.run
	done, total := run.Progress()

	s := titleStyle.Render(fmt.Sprintf("%s inspection", run.Cadence)) +
		subtitleStyle.Render(fmt.Sprintf("  started %s  %d/%d", run.StartedAt.Local().Format("2006-01-02 15:04"), done, total)) + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	s += m.viewErr()

	for i, item := range run.Items {
		box := "[ ]"
		if item.IsDone {
			box = okStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", box, truncateStr(item.Title, 60))
		if item.Remark != "" {
			line += subtitleStyle.Render("  " + truncateStr(item.Remark, 30))
		}
		if i == m.itemCursor {
			s += "> " + labelStyle.Render(line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  space/enter: check/uncheck  f: finish  x: abort  esc: back")
	return s
}
