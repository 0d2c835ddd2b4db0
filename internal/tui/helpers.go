package tui

import (
	"fmt"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func formatMoney(d decimal.Decimal) string {
	return format.Money(d)
}

func truncateStr(s string, maxLen int) string {
	return format.Truncate(s, maxLen)
}

// statusBadge colors an invoice status by urgency
func statusBadge(status domain.InvoiceStatus) string {
	label := string(status)
	switch status {
	case domain.StatusPaid:
		return okStyle.Render(label)
	case domain.StatusCancelled:
		return subtitleStyle.Render(label)
	case domain.StatusDue, domain.StatusDunned, domain.StatusInstallments:
		return dueStyle.Render(label)
	case domain.StatusDefault:
		return overdueStyle.Render(label)
	case domain.StatusCollection:
		return criticalStyle.Render(label)
	default:
		return lipgloss.NewStyle().Foreground(primaryColor).Render(label)
	}
}

// priorityBadge highlights high and critical priorities
func priorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityCritical:
		return criticalStyle.Render(string(p))
	case domain.PriorityHigh:
		return overdueStyle.Render(string(p))
	case domain.PriorityLow:
		return subtitleStyle.Render(string(p))
	default:
		return string(p)
	}
}

// dueLabel describes the effective due date relative to today
func dueLabel(state obligation.InvoiceState) string {
	if !state.HasDueDate() {
		return subtitleStyle.Render("no due date")
	}
	date := format.Date(state.EffectiveDueDate)
	switch {
	case state.IsOverdue:
		return overdueStyle.Render(fmt.Sprintf("%s (%dd overdue)", date, state.DaysOverdue))
	case state.IsDueToday:
		return dueStyle.Render(date + " (today)")
	case state.DaysOverdue < 0:
		return fmt.Sprintf("%s (in %dd)", date, -state.DaysOverdue)
	default:
		return date
	}
}
