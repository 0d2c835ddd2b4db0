package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestSetup_FileOutput(t *testing.T) {
	t.Cleanup(func() { _, _ = Setup(DefaultConfig()) })

	path := filepath.Join(t.TempDir(), "logs", "rechnungsbuch.log")
	closer, err := Setup(LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	require.NotNil(t, closer)

	log := WithLedger("invoice_service", "firma-a")
	log.Info().Str("invoice", "inv-1").Msg("payment recorded")
	log.Debug().Msg("below level")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"component":"invoice_service"`)
	assert.Contains(t, out, `"ledger":"firma-a"`)
	assert.Contains(t, out, `"message":"payment recorded"`)
	assert.NotContains(t, out, "below level")
}
