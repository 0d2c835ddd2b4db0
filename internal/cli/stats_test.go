package cli

import (
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuildStatsReport(t *testing.T) {
	today := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	due := today.AddDate(0, 0, -12)

	inv := domain.NewInvoice("firma-a", "Wartung Heizung", decimal.RequireFromString("480"), &due)
	inv.Category = ""
	inv.DunningLevel = 2
	inv.Status = domain.StatusDunned

	stats := obligation.Aggregate([]*domain.Invoice{inv}, today, obligation.DefaultStatsOptions())
	report := buildStatsReport("", &stats)

	assert.Equal(t, "all", report.Ledger)
	assert.Equal(t, 1, report.Count)
	assert.Equal(t, "480.00", report.Outstanding)
	assert.Equal(t, bucketEntry{Count: 1, Outstanding: "480.00"}, report.ByStatus["gemahnt"])
	assert.Equal(t, 1, report.ByDunningLevel["2"].Count)
	assert.Contains(t, report.ByCategory, "(none)")
	assert.Equal(t, 1, report.ByCompany["firma-a"].Count)

	require.Len(t, report.Overdue, 1)
	assert.Equal(t, "2024-03-08", report.Overdue[0].DueDate)
	assert.Equal(t, 12, report.Overdue[0].DaysOverdue)
	assert.Empty(t, report.DueSoon)

	out, err := yaml.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "outstanding: \"480.00\"")
	assert.Contains(t, string(out), "days_overdue: 12")
}
