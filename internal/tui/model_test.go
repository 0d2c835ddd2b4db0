package tui

import (
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/app"
	"github.com/andy/rechnungsbuch/internal/config"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp() *app.App {
	return &app.App{Config: config.DefaultConfig()}
}

func TestNewSession_DefaultsToFirstLedger(t *testing.T) {
	s := newSession(testApp(), "")
	assert.Equal(t, "firma-a", s.ledger)
	assert.Equal(t, "Firma A", s.current().Name)

	s = newSession(testApp(), "privat-1")
	assert.Equal(t, "privat-1", s.ledger)
	assert.Equal(t, config.LedgerPrivate, s.current().Kind)
}

func TestSessionNext_Wraps(t *testing.T) {
	s := newSession(testApp(), "privat-2")
	s.next()
	assert.Equal(t, "firma-a", s.ledger)
	s.next()
	assert.Equal(t, "firma-b", s.ledger)
}

func TestForm_Navigation(t *testing.T) {
	f := newForm([]string{"A:", "B:"}, []textinput.Model{newInput("a", 10, 10), newInput("b", 10, 10)})
	f.start()
	assert.Equal(t, 0, f.focus)

	result, _ := f.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, formEditing, result)
	assert.Equal(t, 1, f.focus)

	result, _ = f.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, formEditing, result)
	assert.Equal(t, 0, f.focus)

	f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "x", f.value(0))

	result, _ = f.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, formEditing, result)
	result, _ = f.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, formSubmit, result)

	result, _ = f.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, formCancel, result)
}

func TestDueLabel(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Contains(t, dueLabel(obligation.InvoiceState{}), "no due date")
	assert.Contains(t, dueLabel(obligation.InvoiceState{EffectiveDueDate: &due, DaysOverdue: 5, IsOverdue: true}), "5d overdue")
	assert.Contains(t, dueLabel(obligation.InvoiceState{EffectiveDueDate: &due, IsDueToday: true}), "today")
	assert.Contains(t, dueLabel(obligation.InvoiceState{EffectiveDueDate: &due, DaysOverdue: -3}), "in 3d")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1.234,50 €", formatMoney(decimal.RequireFromString("1234.5")))
}

func TestContactsModel_FirstRunOpensFormAfterLoad(t *testing.T) {
	m := NewContactsModel(newSession(testApp(), "")).(*ContactsModel)

	_, _ = m.Update(OpenNewContactFormMsg{})
	assert.True(t, m.autoNewContact)
	assert.False(t, m.IsCapturingInput())

	_, _ = m.Update(contactsDataMsg{})
	assert.True(t, m.IsCapturingInput())
	assert.Equal(t, contactModeNew, m.mode)
	assert.Contains(t, m.View(), "Welcome to rechnungsbuch!")

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.IsCapturingInput())
}

func TestInvoicesModel_NewFormCapturesInput(t *testing.T) {
	m := NewInvoicesModel(newSession(testApp(), "")).(*InvoicesModel)
	_, _ = m.Update(invoicesDataMsg{ledger: "firma-a"})

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.True(t, m.IsCapturingInput())
	assert.Contains(t, m.View(), "New Invoice")
	assert.Contains(t, m.View(), "empty = in 14 days")

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, invoiceViewList, m.mode)
}

func TestModel_GlobalKeysSuppressedWhileTyping(t *testing.T) {
	s := newSession(testApp(), "")
	contacts := NewContactsModel(s).(*ContactsModel)
	_, _ = contacts.Update(contactsDataMsg{})
	contacts.openForm(nil)

	m := Model{session: s, currentScreen: ScreenContacts, contacts: contacts}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})

	assert.Equal(t, ScreenContacts, updated.(Model).currentScreen)
	assert.Equal(t, "i", contacts.form.value(contactFieldName))
}

func TestModel_LedgerKeyCyclesLedger(t *testing.T) {
	s := newSession(testApp(), "")
	m := Model{session: s, currentScreen: ScreenSettings, settings: NewSettingsModel(s)}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	require.NotNil(t, cmd)
	assert.Equal(t, LedgerChangedMsg{Ledger: "firma-b"}, cmd())
	assert.Equal(t, "firma-b", s.ledger)
}
