package tui

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// LedgerChangedMsg reports that another ledger was selected
type LedgerChangedMsg struct {
	Ledger string
}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// OpenNewContactFormMsg tells the contacts screen to open the new contact form
type OpenNewContactFormMsg struct{}

// firstRunCheckMsg reports whether the database has any contacts
type firstRunCheckMsg struct {
	hasContacts bool
}
