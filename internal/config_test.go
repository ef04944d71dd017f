package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

type mapSource map[string]interface{}

func (m mapSource) GetConfig(path string, def interface{}) interface{} {
	if v, ok := m[path]; ok {
		return v
	}
	return def
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(mapSource{"chain.grpc": "localhost:9090"})
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", cfg.GRPC)
	assert.Equal(t, "", cfg.ChainID)
	assert.Equal(t, "cosmos", cfg.Bech32Prefix)
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "1.4", cfg.GasMultiplier)
	assert.Equal(t, "0.025uatom", cfg.GasPrice)
	assert.Equal(t, uint(10), cfg.PollAttempts)
	assert.Equal(t, 3*time.Second, cfg.PollDelay)
	assert.Equal(t, "m/44'/118'/0'/0/0", cfg.HDPath)
	assert.Empty(t, cfg.KeyFiles)
	assert.Empty(t, cfg.MetricsListen)
}

func TestLoadConfigValues(t *testing.T) {
	cfg, err := LoadConfig(mapSource{
		"chain.grpc":              "grpc.cosmos.network:443",
		"chain.chain_id":          "cosmoshub-4",
		"chain.request_timeout":   "5s",
		"chain.dial_timeout":      float64(2),
		"fee.gas_multiplier":      1.5,
		"fee.gas_price":           "0.01uatom",
		"broadcast.poll_attempts": float64(4),
		"keys.files":              []interface{}{"keys/a.armor", "keys/b.armor"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cosmoshub-4", cfg.ChainID)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, "1.5", cfg.GasMultiplier)
	assert.Equal(t, "0.01uatom", cfg.GasPrice)
	assert.Equal(t, uint(4), cfg.PollAttempts)
	assert.Equal(t, []string{"keys/a.armor", "keys/b.armor"}, cfg.KeyFiles)
}

func TestLoadConfigErrors(t *testing.T) {
	for name, src := range map[string]mapSource{
		"missing grpc":      {},
		"bad duration":      {"chain.grpc": "x", "chain.request_timeout": "soon"},
		"negative attempts": {"chain.grpc": "x", "broadcast.poll_attempts": -1},
	} {
		_, err := LoadConfig(src)
		require.ErrorIs(t, err, txerrors.ErrConfig, name)
	}
}
