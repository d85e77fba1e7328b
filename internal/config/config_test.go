package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.ListenAddress)
	assert.Equal(t, 9001, cfg.ListenPort)
	assert.Len(t, cfg.Instruments, 1)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MATCHBOOK_LISTEN_PORT", "9500")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9500, cfg.ListenPort)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "matchbook-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("listen_port: 7000\ninstruments:\n  - symbol: ETH-USD\n    tick_size: 5\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := Load(f.Name())
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.ListenPort)
	require.Len(t, cfg.Instruments, 1)
	assert.Equal(t, "ETH-USD", cfg.Instruments[0].Symbol)
	assert.Equal(t, int64(5), cfg.Instruments[0].TickSize)
}

func TestTickSizes(t *testing.T) {
	cfg := Config{Instruments: []Instrument{{Symbol: "BTC-USD", TickSize: 1}}}
	sizes := cfg.TickSizes()
	assert.Equal(t, int64(1), int64(sizes["BTC-USD"]))
}
