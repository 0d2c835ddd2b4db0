package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// contactMode represents the current screen mode
type contactMode int

const (
	contactModeList contactMode = iota
	contactModeNew
	contactModeEdit
)

// contact form field indices
const (
	contactFieldName = iota
	contactFieldCompany
	contactFieldKind
	contactFieldEmail
	contactFieldPhone
	contactFieldIBAN
	contactFieldAddress
	contactFieldNotes
	contactFieldCount
)

var contactFormLabels = []string{
	"Name:", "Company:", "Kind (kreditor, debitor, sonstige):",
	"Email:", "Phone:", "IBAN:", "Address:", "Notes:",
}

// ContactsModel displays a navigable list of contacts with create/edit forms
type ContactsModel struct {
	session      *session
	contacts     []*domain.Contact
	openCount    map[string]int // open invoices per contact in the current ledger
	cursor       int
	showArchived bool
	loading      bool
	err          error
	statusMsg    string

	// Form state
	mode           contactMode
	form           *form
	editingID      string // empty for new contact
	autoNewContact bool   // open new contact form after data loads
}

type contactsDataMsg struct {
	contacts  []*domain.Contact
	openCount map[string]int
	err       error
}

type contactSavedMsg struct {
	name string
	err  error
}

// NewContactsModel creates a new contacts screen model
func NewContactsModel(s *session) tea.Model {
	return &ContactsModel{
		session:   s,
		openCount: make(map[string]int),
		loading:   true,
	}
}

// IsCapturingInput returns true when the form is active
func (m *ContactsModel) IsCapturingInput() bool {
	return m.mode == contactModeNew || m.mode == contactModeEdit
}

func (m *ContactsModel) Init() tea.Cmd {
	return m.loadContacts()
}

func (m *ContactsModel) loadContacts() tea.Cmd {
	showArchived := m.showArchived
	return func() tea.Msg {
		ctx := context.Background()

		contacts, err := m.session.app.ContactRepo.List(ctx, showArchived)
		if err != nil {
			return contactsDataMsg{err: err}
		}

		counts := make(map[string]int)
		if svc, err := m.session.invoices(); err == nil {
			if invoices, err := svc.List(ctx, repository.InvoiceFilter{}); err == nil {
				for _, inv := range invoices {
					if inv.ContactID != "" {
						counts[inv.ContactID]++
					}
				}
			}
		}

		return contactsDataMsg{contacts: contacts, openCount: counts}
	}
}

func (m *ContactsModel) openForm(editing *domain.Contact) tea.Cmd {
	fields := make([]textinput.Model, contactFieldCount)
	fields[contactFieldName] = newInput("Person name", 100, 40)
	fields[contactFieldCompany] = newInput("Company name", 100, 40)
	fields[contactFieldKind] = newInput(string(domain.ContactCreditor), 10, 12)
	fields[contactFieldEmail] = newInput("email@example.com", 100, 40)
	fields[contactFieldPhone] = newInput("+49 ...", 40, 20)
	fields[contactFieldIBAN] = newInput("DE..", 40, 34)
	fields[contactFieldAddress] = newInput("Street, ZIP City", 200, 50)
	fields[contactFieldNotes] = newInput("Optional notes", 200, 50)

	m.editingID = ""
	if editing != nil {
		fields[contactFieldName].SetValue(editing.Name)
		fields[contactFieldCompany].SetValue(editing.Company)
		fields[contactFieldKind].SetValue(string(editing.Kind))
		fields[contactFieldEmail].SetValue(editing.Email)
		fields[contactFieldPhone].SetValue(editing.Phone)
		fields[contactFieldIBAN].SetValue(editing.IBAN)
		fields[contactFieldAddress].SetValue(editing.Address)
		fields[contactFieldNotes].SetValue(editing.Notes)
		m.editingID = editing.ID
		m.mode = contactModeEdit
	} else {
		m.mode = contactModeNew
	}

	m.form = newForm(contactFormLabels, fields)
	return m.form.start()
}

func (m *ContactsModel) saveContact() tea.Cmd {
	f := m.form
	editingID := m.editingID
	return func() tea.Msg {
		ctx := context.Background()
		repo := m.session.app.ContactRepo

		kind := domain.ContactKind(strings.ToLower(f.value(contactFieldKind)))
		if kind == "" {
			kind = domain.ContactCreditor
		}

		var contact *domain.Contact
		if editingID != "" {
			existing, err := repo.GetByID(ctx, editingID)
			if err != nil {
				return contactSavedMsg{err: err}
			}
			contact = existing
			contact.Name = f.value(contactFieldName)
			contact.Kind = kind
		} else {
			contact = domain.NewContact(f.value(contactFieldName), kind)
		}
		contact.Company = f.value(contactFieldCompany)
		contact.Email = f.value(contactFieldEmail)
		contact.Phone = f.value(contactFieldPhone)
		contact.IBAN = f.value(contactFieldIBAN)
		contact.Address = f.value(contactFieldAddress)
		contact.Notes = f.value(contactFieldNotes)

		var err error
		if editingID != "" {
			err = repo.Update(ctx, contact)
		} else {
			err = repo.Create(ctx, contact)
		}
		if err != nil {
			return contactSavedMsg{err: err}
		}
		return contactSavedMsg{name: contact.DisplayName()}
	}
}

func (m *ContactsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle OpenNewContactFormMsg at the top so it works regardless of mode
	if _, ok := msg.(OpenNewContactFormMsg); ok {
		if m.loading {
			// Data hasn't loaded yet; set flag to auto-open form when it does
			m.autoNewContact = true
			return m, nil
		}
		return m, m.openForm(nil)
	}

	if saved, ok := msg.(contactSavedMsg); ok {
		if saved.err != nil {
			m.err = saved.err
			return m, nil
		}
		m.mode = contactModeList
		m.err = nil
		m.statusMsg = fmt.Sprintf("Saved: %s", saved.name)
		m.loading = true
		return m, m.loadContacts()
	}

	if m.IsCapturingInput() {
		result, cmd := m.form.update(msg)
		switch result {
		case formSubmit:
			return m, m.saveContact()
		case formCancel:
			m.mode = contactModeList
			m.err = nil
			return m, nil
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadContacts()

	case contactsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.contacts = msg.contacts
			m.openCount = msg.openCount
			if m.cursor >= len(m.contacts) {
				m.cursor = max(0, len(m.contacts)-1)
			}
		}
		// Auto-open new contact form on first run
		if m.autoNewContact {
			m.autoNewContact = false
			return m, m.openForm(nil)
		}
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.contacts)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.New):
			return m, m.openForm(nil)
		case key.Matches(msg, DefaultKeyMap.Select):
			if m.cursor < len(m.contacts) {
				return m, m.openForm(m.contacts[m.cursor])
			}
		case msg.String() == "a":
			if m.cursor < len(m.contacts) {
				return m, m.toggleArchive(m.contacts[m.cursor])
			}
		case msg.String() == "h":
			m.showArchived = !m.showArchived
			m.cursor = 0
			m.loading = true
			return m, m.loadContacts()
		}
	}

	return m, nil
}

func (m *ContactsModel) toggleArchive(contact *domain.Contact) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		repo := m.session.app.ContactRepo

		var err error
		if contact.IsArchived {
			err = repo.Unarchive(ctx, contact.ID)
		} else {
			err = repo.Archive(ctx, contact.ID)
		}
		if err != nil {
			return contactsDataMsg{err: err}
		}

		return m.loadContacts()()
	}
}

func (m *ContactsModel) View() string {
	if m.IsCapturingInput() {
		return m.viewForm()
	}
	return m.viewList()
}

func (m *ContactsModel) viewForm() string {
	var s string

	if m.mode == contactModeNew {
		if len(m.contacts) == 0 && !m.showArchived {
			s += titleStyle.Render("Welcome to rechnungsbuch!") + "\n"
			s += subtitleStyle.Render("  Add your first creditor to get started.") + "\n\n"
		} else {
			s += titleStyle.Render("New Contact") + "\n\n"
		}
	} else {
		s += titleStyle.Render("Edit Contact") + "\n\n"
	}

	s += m.form.View()

	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render(formHelp)
	return s
}

func (m *ContactsModel) viewList() string {
	if m.loading {
		return "Loading contacts..."
	}

	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var s string

	header := "Contacts"
	if m.showArchived {
		header += subtitleStyle.Render("  (showing archived)")
	}
	s += titleStyle.Render(header) + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	if len(m.contacts) == 0 {
		s += subtitleStyle.Render("  No contacts yet. Press 'n' to add one.") + "\n"
		s += subtitleStyle.Render("  Press 'h' to toggle archived contacts") + "\n"
		return s
	}

	for i, contact := range m.contacts {
		s += m.renderContact(i, contact) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  n: new  enter: edit  a: archive/unarchive  h: toggle archived")

	return s
}

func (m *ContactsModel) renderContact(index int, contact *domain.Contact) string {
	selected := index == m.cursor

	name := contact.DisplayName()
	if contact.IsArchived {
		name += " (archived)"
	}

	indicator := "  "
	if selected {
		indicator = "> "
	}

	line1 := fmt.Sprintf("%s%s  [%s]", indicator, name, contact.Kind)

	details := make([]string, 0, 3)
	if contact.Email != "" {
		details = append(details, contact.Email)
	}
	if contact.Phone != "" {
		details = append(details, contact.Phone)
	}
	if n := m.openCount[contact.ID]; n > 0 {
		details = append(details, fmt.Sprintf("%d open invoice(s)", n))
	}

	nameStyle := lipgloss.NewStyle()
	detailStyle := subtitleStyle
	if contact.IsArchived {
		nameStyle = nameStyle.Foreground(mutedColor)
	}
	if selected {
		nameStyle = nameStyle.Bold(true).Foreground(primaryColor)
	}

	result := nameStyle.Render(line1)
	if len(details) > 0 {
		result += "\n" + detailStyle.Render("    "+truncateStr(strings.Join(details, "  |  "), 80))
	}
	return result
}
