package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	primaryColor = lipgloss.Color("39")  // blue
	accentColor  = lipgloss.Color("205") // pink, amounts
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("76")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")
	borderColor  = lipgloss.Color("63")
)

// Frame: border, header with the active ledger, key footer
var (
	appBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	ledgerKindStyle = lipgloss.NewStyle().Foreground(mutedColor)
	footerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
)

// Screen content
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	labelStyle    = titleStyle
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Background(primaryColor).Foreground(lipgloss.Color("0"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errStyle      = lipgloss.NewStyle().Foreground(errorColor)
)

// Invoice and inspection states, from settled to escalated
var (
	okStyle       = lipgloss.NewStyle().Foreground(successColor)
	statusStyle   = okStyle
	dueStyle      = lipgloss.NewStyle().Foreground(warningColor)
	overdueStyle  = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(errorColor)
	amountStyle   = lipgloss.NewStyle().Foreground(accentColor)
)
