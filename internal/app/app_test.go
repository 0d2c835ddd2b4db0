package app

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andy/rechnungsbuch/internal/config"
	"github.com/andy/rechnungsbuch/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDB_WiresLedgers(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	cfg := config.DefaultConfig()
	a := NewWithDB(cfg, db.Wrap(sqlDB))

	require.Len(t, a.InvoiceServices, len(cfg.Ledgers))
	assert.NotNil(t, a.InspectionService)
	assert.NotNil(t, a.ReportService)

	svc, err := a.Invoices("")
	require.NoError(t, err)
	assert.Equal(t, "firma-a", svc.Ledger())

	svc, err = a.Invoices("privat-2")
	require.NoError(t, err)
	assert.Equal(t, "privat-2", svc.Ledger())

	_, err = a.Invoices("firma-z")
	assert.Error(t, err)
}
