package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/andy/rechnungsbuch/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type invoiceViewMode int

const (
	invoiceViewList   invoiceViewMode = iota
	invoiceViewDetail                 // Viewing a single invoice
	invoiceViewForm                   // Editing one of the invoice forms
)

// invoiceFormKind selects what the open form does on submit
type invoiceFormKind int

const (
	invoiceFormNew invoiceFormKind = iota
	invoiceFormPayment
	invoiceFormDunning
	invoiceFormStatus
	invoiceFormPlan
	invoiceFormComment
)

func (k invoiceFormKind) title() string {
	switch k {
	case invoiceFormNew:
		return "New Invoice"
	case invoiceFormPayment:
		return "Record Payment"
	case invoiceFormDunning:
		return "Set Mahnstufe"
	case invoiceFormStatus:
		return "Set Status"
	case invoiceFormPlan:
		return "Installment Plan"
	case invoiceFormComment:
		return "Add Activity"
	}
	return ""
}

// invoiceRow pairs a listed invoice with its derived state
type invoiceRow struct {
	invoice *domain.Invoice
	state   obligation.InvoiceState
}

// InvoicesModel displays invoices in list and detail views
type InvoicesModel struct {
	session     *session
	mode        invoiceViewMode
	rows        []invoiceRow
	cursor      int
	showClosed  bool
	loading     bool
	err         error
	statusMsg   string
	ledgerShown string

	// Detail state
	selected      *domain.Invoice
	selectedState obligation.InvoiceState
	activities    []*domain.Activity
	contactName   string
	paymentCursor int

	// Form state
	formKind invoiceFormKind
	form     *form
}

type invoicesDataMsg struct {
	ledger string
	rows   []invoiceRow
	err    error
}

type invoiceDetailMsg struct {
	invoice     *domain.Invoice
	state       obligation.InvoiceState
	activities  []*domain.Activity
	contactName string
	err         error
}

// invoiceActionMsg reports the outcome of a write on the selected invoice
type invoiceActionMsg struct {
	invoiceID string
	status    string
	err       error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(s *session) tea.Model {
	return &InvoicesModel{
		session: s,
		loading: true,
	}
}

// IsCapturingInput returns true while a form is open
func (m *InvoicesModel) IsCapturingInput() bool {
	return m.mode == invoiceViewForm
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	showClosed := m.showClosed
	return func() tea.Msg {
		svc, err := m.session.invoices()
		if err != nil {
			return invoicesDataMsg{err: err}
		}

		invoices, err := svc.List(context.Background(), repository.InvoiceFilter{IncludeClosed: showClosed})
		if err != nil {
			return invoicesDataMsg{err: err}
		}

		rows := make([]invoiceRow, 0, len(invoices))
		for _, inv := range invoices {
			rows = append(rows, invoiceRow{invoice: inv, state: svc.State(inv)})
		}
		return invoicesDataMsg{ledger: svc.Ledger(), rows: rows}
	}
}

func (m *InvoicesModel) loadDetail(id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		svc, err := m.session.invoices()
		if err != nil {
			return invoiceDetailMsg{err: err}
		}

		invoice, err := svc.Get(ctx, id)
		if err != nil {
			return invoiceDetailMsg{err: err}
		}

		activities, err := svc.Activities(ctx, id)
		if err != nil {
			return invoiceDetailMsg{err: err}
		}

		msg := invoiceDetailMsg{
			invoice:    invoice,
			state:      svc.State(invoice),
			activities: activities,
		}
		if invoice.ContactID != "" {
			if contact, err := m.session.app.ContactRepo.GetByID(ctx, invoice.ContactID); err == nil {
				msg.contactName = contact.DisplayName()
			}
		}
		return msg
	}
}

func (m *InvoicesModel) openForm(kind invoiceFormKind) tea.Cmd {
	var labels []string
	var fields []textinput.Model

	switch kind {
	case invoiceFormNew:
		labels = []string{"Title:", "Amount:", "Due date:", "Reference:", "Category:", "Contact:", "Notes:"}
		fields = []textinput.Model{
			newInput("Grundsteuer Q2", 120, 40),
			newInput("1.234,56", 20, 15),
			newInput(fmt.Sprintf("empty = in %d days", m.session.app.Config.Invoices.DefaultDueDays), 10, 24),
			newInput("optional, 'auto' to generate", 40, 30),
			newInput("optional", 60, 30),
			newInput("contact name, optional", 100, 40),
			newInput("optional", 200, 50),
		}
	case invoiceFormPayment:
		labels = []string{"Amount:", "Date:", "Note:"}
		fields = []textinput.Model{
			newInput(formatMoney(m.selectedState.Outstanding), 20, 15),
			newInput("today", 10, 12),
			newInput("optional", 200, 50),
		}
		fields[1].SetValue("today")
	case invoiceFormDunning:
		labels = []string{"Mahnstufe (0-4):", "Note:"}
		fields = []textinput.Model{
			newInput("0-4", 1, 4),
			newInput("optional", 200, 50),
		}
		next := m.selected.DunningLevel + 1
		if next > domain.DunningLegal {
			next = domain.DunningLegal
		}
		fields[0].SetValue(strconv.Itoa(next))
	case invoiceFormStatus:
		names := make([]string, 0, len(domain.AllStatuses))
		for _, s := range domain.AllStatuses {
			names = append(names, string(s))
		}
		labels = []string{"Status (" + strings.Join(names, ", ") + "):", "Note:"}
		fields = []textinput.Model{
			newInput(string(m.selected.Status), 20, 20),
			newInput("optional", 200, 50),
		}
	case invoiceFormPlan:
		labels = []string{"Installment amount:", "Interval (monatlich, woechentlich):", "First due date:"}
		fields = []textinput.Model{
			newInput("250,00", 20, 15),
			newInput(string(domain.IntervalMonthly), 15, 15),
			newInput("YYYY-MM-DD", 10, 12),
		}
		if m.selected.HasPlan() {
			fields[0].SetValue(m.selected.InstallmentAmount.StringFixed(2))
			fields[1].SetValue(string(m.selected.Interval))
			fields[2].SetValue(format.Date(m.selected.FirstInstallmentDate))
		}
	case invoiceFormComment:
		labels = []string{"Type (kommentar, email, telefonat, datei):", "Title:", "Description:"}
		fields = []textinput.Model{
			newInput(string(domain.ActivityComment), 12, 12),
			newInput("Short summary", 120, 40),
			newInput("optional", 500, 50),
		}
		fields[0].SetValue(string(domain.ActivityComment))
	}

	m.formKind = kind
	m.form = newForm(labels, fields)
	m.mode = invoiceViewForm
	m.err = nil
	return m.form.start()
}

func (m *InvoicesModel) submitForm() tea.Cmd {
	f := m.form
	kind := m.formKind
	var invoiceID string
	if m.selected != nil && kind != invoiceFormNew {
		invoiceID = m.selected.ID
	}

	return func() tea.Msg {
		ctx := context.Background()
		svc, err := m.session.invoices()
		if err != nil {
			return invoiceActionMsg{err: err}
		}

		switch kind {
		case invoiceFormNew:
			invoice, err := m.createInvoice(ctx, svc, f)
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			return invoiceActionMsg{invoiceID: invoice.ID, status: "Recorded: " + invoice.Title}

		case invoiceFormPayment:
			amount, err := format.ParseAmount(f.value(0))
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			date, err := format.ParseDate(f.value(1), time.Now())
			if err != nil {
				return invoiceActionMsg{err: fmt.Errorf("invalid date: %w", err)}
			}
			updated, err := svc.AddPayment(ctx, invoiceID, amount, date, f.value(2))
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			return invoiceActionMsg{invoiceID: invoiceID, status: fmt.Sprintf("Payment of %s recorded, status %s", formatMoney(amount), updated.Status)}

		case invoiceFormDunning:
			level, err := strconv.Atoi(f.value(0))
			if err != nil {
				return invoiceActionMsg{err: fmt.Errorf("invalid Mahnstufe %q", f.value(0))}
			}
			updated, err := svc.SetDunningLevel(ctx, invoiceID, level, f.value(1))
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			return invoiceActionMsg{invoiceID: invoiceID, status: fmt.Sprintf("Mahnstufe %d, status %s", updated.DunningLevel, updated.Status)}

		case invoiceFormStatus:
			status := domain.InvoiceStatus(strings.ToLower(f.value(0)))
			updated, err := svc.SetStatus(ctx, invoiceID, status, f.value(1))
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			return invoiceActionMsg{invoiceID: invoiceID, status: "Status set to " + string(updated.Status)}

		case invoiceFormPlan:
			rate, err := format.ParseAmount(f.value(0))
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			plan := service.PlanInput{InstallmentAmount: rate, Interval: domain.Interval(f.value(1))}
			if s := f.value(2); s != "" && s != "-" {
				first, err := format.ParseDate(s, time.Now())
				if err != nil {
					return invoiceActionMsg{err: fmt.Errorf("invalid first due date: %w", err)}
				}
				plan.FirstDueDate = &first
			}
			updated, err := svc.SetupPlan(ctx, invoiceID, plan)
			if err != nil {
				return invoiceActionMsg{err: err}
			}
			return invoiceActionMsg{invoiceID: invoiceID, status: fmt.Sprintf("Plan: %s %s, next due %s",
				formatMoney(updated.InstallmentAmount), updated.Interval, format.Date(updated.InstallmentDueDate))}

		case invoiceFormComment:
			typ := domain.ActivityType(strings.ToLower(f.value(0)))
			switch typ {
			case domain.ActivityComment, domain.ActivityEmail, domain.ActivityCall, domain.ActivityFile:
			default:
				return invoiceActionMsg{err: fmt.Errorf("activity type must be kommentar, email, telefonat or datei")}
			}
			if _, err := svc.AddActivity(ctx, invoiceID, typ, f.value(1), f.value(2)); err != nil {
				return invoiceActionMsg{err: err}
			}
			return invoiceActionMsg{invoiceID: invoiceID, status: "Activity added"}
		}
		return invoiceActionMsg{err: errors.New("unknown form")}
	}
}

func (m *InvoicesModel) createInvoice(ctx context.Context, svc service.InvoiceService, f *form) (*domain.Invoice, error) {
	cfg := m.session.app.Config.Invoices
	now := time.Now()

	in := service.NewInvoiceInput{
		Title:    f.value(0),
		Category: f.value(4),
		Notes:    f.value(6),
	}

	var err error
	if in.Amount, err = format.ParseAmount(f.value(1)); err != nil {
		return nil, err
	}

	if s := f.value(2); s != "" {
		due, err := format.ParseDate(s, now)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		in.DueDate = &due
	} else if cfg.DefaultDueDays > 0 {
		today, _ := format.ParseDate("today", now)
		due := today.AddDate(0, 0, cfg.DefaultDueDays)
		in.DueDate = &due
	}

	in.Reference = f.value(3)
	if strings.EqualFold(in.Reference, "auto") {
		if in.Reference, err = m.session.app.InvoiceRepo.NextReference(ctx, cfg.ReferencePrefix, now.Year()); err != nil {
			return nil, err
		}
	}

	if name := f.value(5); name != "" {
		contact, err := m.session.app.ContactRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("contact named '%s' not found", name)
			}
			return nil, err
		}
		in.ContactID = contact.ID
	}

	return svc.Create(ctx, in)
}

func (m *InvoicesModel) deletePayment(paymentID string) tea.Cmd {
	invoiceID := m.selected.ID
	return func() tea.Msg {
		svc, err := m.session.invoices()
		if err != nil {
			return invoiceActionMsg{err: err}
		}
		updated, err := svc.DeletePayment(context.Background(), invoiceID, paymentID)
		if err != nil {
			return invoiceActionMsg{invoiceID: invoiceID, err: err}
		}
		return invoiceActionMsg{invoiceID: invoiceID, status: "Payment deleted, status " + string(updated.Status)}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		if m.mode == invoiceViewForm {
			return m, nil
		}
		// A ledger switch invalidates the open detail
		if m.ledgerShown != m.session.ledger {
			m.mode = invoiceViewList
			m.selected = nil
			m.cursor = 0
		}
		m.loading = true
		if m.mode == invoiceViewDetail && m.selected != nil {
			return m, tea.Batch(m.loadInvoices(), m.loadDetail(m.selected.ID))
		}
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			m.ledgerShown = msg.ledger
			if m.cursor >= len(m.rows) {
				m.cursor = max(0, len(m.rows)-1)
			}
		}
		return m, nil

	case invoiceDetailMsg:
		m.err = msg.err
		if msg.err == nil {
			m.selected = msg.invoice
			m.selectedState = msg.state
			m.activities = msg.activities
			m.contactName = msg.contactName
			if m.paymentCursor >= len(m.selected.Payments) {
				m.paymentCursor = max(0, len(m.selected.Payments)-1)
			}
			m.mode = invoiceViewDetail
		}
		return m, nil

	case invoiceActionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.statusMsg = msg.status
		m.mode = invoiceViewDetail
		m.loading = true
		return m, tea.Batch(m.loadInvoices(), m.loadDetail(msg.invoiceID))
	}

	switch m.mode {
	case invoiceViewForm:
		result, cmd := m.form.update(msg)
		switch result {
		case formSubmit:
			return m, m.submitForm()
		case formCancel:
			m.err = nil
			if m.formKind == invoiceFormNew || m.selected == nil {
				m.mode = invoiceViewList
			} else {
				m.mode = invoiceViewDetail
			}
		}
		return m, cmd
	case invoiceViewDetail:
		return m.updateDetail(msg)
	}
	return m.updateList(msg)
}

func (m *InvoicesModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.Select):
		if m.cursor < len(m.rows) {
			m.paymentCursor = 0
			return m, m.loadDetail(m.rows[m.cursor].invoice.ID)
		}
	case key.Matches(keyMsg, DefaultKeyMap.New):
		m.selected = nil
		return m, m.openForm(invoiceFormNew)
	case keyMsg.String() == "h":
		m.showClosed = !m.showClosed
		m.cursor = 0
		m.loading = true
		return m, m.loadInvoices()
	}
	return m, nil
}

func (m *InvoicesModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.selected == nil {
		return m, nil
	}

	m.statusMsg = ""
	m.err = nil

	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Back):
		m.mode = invoiceViewList
		m.selected = nil
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.paymentCursor > 0 {
			m.paymentCursor--
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.paymentCursor < len(m.selected.Payments)-1 {
			m.paymentCursor++
		}
	case keyMsg.String() == "p":
		return m, m.openForm(invoiceFormPayment)
	case keyMsg.String() == "m":
		return m, m.openForm(invoiceFormDunning)
	case keyMsg.String() == "s":
		return m, m.openForm(invoiceFormStatus)
	case keyMsg.String() == "t":
		return m, m.openForm(invoiceFormPlan)
	case keyMsg.String() == "a":
		return m, m.openForm(invoiceFormComment)
	case keyMsg.String() == "x":
		if m.paymentCursor < len(m.selected.Payments) {
			return m, m.deletePayment(m.selected.Payments[m.paymentCursor].ID)
		}
	}
	return m, nil
}

func (m *InvoicesModel) View() string {
	switch m.mode {
	case invoiceViewForm:
		return m.viewForm()
	case invoiceViewDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m *InvoicesModel) viewForm() string {
	s := titleStyle.Render(m.formKind.title())
	if m.selected != nil && m.formKind != invoiceFormNew {
		s += subtitleStyle.Render("  " + m.selected.Title)
	}
	s += "\n\n" + m.form.View()

	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}
	return s + helpStyle.Render(formHelp)
}

func (m *InvoicesModel) viewList() string {
	if m.loading && len(m.rows) == 0 {
		return "Loading invoices..."
	}

	var s string
	header := "Invoices"
	if m.showClosed {
		header += subtitleStyle.Render("  (including paid and cancelled)")
	}
	s += titleStyle.Render(header) + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.rows) == 0 {
		s += subtitleStyle.Render("  No open invoices in this ledger. Press 'n' to record one.") + "\n"
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf("  %-14s %-28s %-16s %14s  %s", "Reference", "Title", "Status", "Outstanding", "Due")) + "\n"
	total := decimal.Zero
	for i, row := range m.rows {
		inv := row.invoice
		line := fmt.Sprintf("%-14s %-28s %-16s %14s  ",
			truncateStr(inv.Reference, 14),
			truncateStr(inv.Title, 28),
			inv.Status,
			formatMoney(row.state.Outstanding),
		)
		if i == m.cursor {
			s += selectedStyle.Render("> "+line) + dueLabel(row.state) + "\n"
		} else {
			s += "  " + line + dueLabel(row.state) + "\n"
		}
		if !inv.Status.IsClosed() {
			total = total.Add(row.state.Outstanding)
		}
	}

	s += "\n" + fmt.Sprintf("  Outstanding: %s", amountStyle.Render(formatMoney(total))) + "\n"
	s += "\n" + helpStyle.Render("  j/k: navigate  enter: details  n: new  h: toggle paid/cancelled")
	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.selected
	if inv == nil {
		return "Loading invoice..."
	}
	state := m.selectedState

	var s string
	title := inv.Title
	if inv.Reference != "" {
		title = inv.Reference + "  " + title
	}
	s += titleStyle.Render(title) + "  " + statusBadge(inv.Status) + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	facts := []string{
		fmt.Sprintf("Priority:    %s", priorityBadge(inv.Priority)),
		fmt.Sprintf("Mahnstufe:   %d", inv.DunningLevel),
		fmt.Sprintf("Due:         %s", dueLabel(state)),
		fmt.Sprintf("Amount:      %s", formatMoney(inv.Amount)),
		fmt.Sprintf("Paid:        %s", formatMoney(state.TotalPaid)),
		fmt.Sprintf("Outstanding: %s", amountStyle.Render(formatMoney(state.Outstanding))),
	}
	if m.contactName != "" {
		facts = append(facts, "Creditor:    "+m.contactName)
	}
	if inv.Company != "" {
		facts = append(facts, "Company:     "+inv.Company)
	}
	if inv.Category != "" {
		facts = append(facts, "Category:    "+inv.Category)
	}
	if inv.HasPlan() {
		facts = append(facts, fmt.Sprintf("Plan:        %s %s from %s, next %s",
			formatMoney(inv.InstallmentAmount), inv.Interval,
			format.Date(inv.FirstInstallmentDate), format.Date(inv.InstallmentDueDate)))
	}
	if inv.PaidAt != nil {
		facts = append(facts, fmt.Sprintf("Paid on:     %s", format.Date(inv.PaidAt)))
	}
	s += boxStyle.Render(strings.Join(facts, "\n")) + "\n\n"

	s += labelStyle.Render("Payments") + "\n"
	if len(inv.Payments) == 0 {
		s += subtitleStyle.Render("  none") + "\n"
	}
	for i, p := range inv.Payments {
		line := fmt.Sprintf("%s %14s  %s", p.Date.Format("2006-01-02"), formatMoney(p.Amount), truncateStr(p.Note, 40))
		if i == m.paymentCursor {
			s += selectedStyle.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	s += "\n" + labelStyle.Render("Activity") + "\n"
	if len(m.activities) == 0 {
		s += subtitleStyle.Render("  none") + "\n"
	}
	for i, a := range m.activities {
		if i == 8 {
			s += subtitleStyle.Render(fmt.Sprintf("  ... %d more", len(m.activities)-i)) + "\n"
			break
		}
		s += fmt.Sprintf("  %s  %-16s %s\n",
			subtitleStyle.Render(a.CreatedAt.Local().Format("2006-01-02 15:04")),
			a.Type,
			truncateStr(a.Title, 50))
	}

	if m.err != nil {
		s += "\n" + errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render("  p: pay  m: Mahnstufe  s: status  t: plan  a: activity  j/k+x: delete payment  esc: back")
	return s
}
