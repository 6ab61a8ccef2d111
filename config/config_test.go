package config

import (
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := DefaultOracleConfig()
	cfg.Arbiter.Operator = "02aa"
	cfg.Governance.Admin = "02bb"
	cfg.Genesis.Allocations = []Allocation{{Address: "02cc", Asset: "ORCL", Amount: 5000000}}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
[registry]
topics = ["price/BTC-USD"]

[[registry.assets]]
name = "ORCL"
minimum_bond = 10

[arbiter]
operator = "02aa"
`
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "oracle-chain", cfg.ChainID)
	assert.Equal(t, int64(500), cfg.Registry.FeeBps)
	assert.True(t, cfg.Arbiter.Enabled)
	assert.Equal(t, "127.0.0.1:26680", cfg.API.Listen)
	assert.Equal(t, []string{"price/BTC-USD"}, cfg.Registry.Topics)
	assert.Equal(t, []AssetConfig{{Name: "ORCL", MinimumBond: 10}}, cfg.Registry.Assets)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, ioutil.WriteFile(path, []byte("[registry]\nfee_bps = 20000\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *OracleConfig)
		valid  bool
	}{
		{"valid", func(cfg *OracleConfig) {}, true},
		{"empty chain", func(cfg *OracleConfig) { cfg.ChainID = "" }, false},
		{"negative fee", func(cfg *OracleConfig) { cfg.Registry.FeeBps = -1 }, false},
		{"unnamed asset", func(cfg *OracleConfig) { cfg.Registry.Assets = append(cfg.Registry.Assets, AssetConfig{}) }, false},
		{"duplicate asset", func(cfg *OracleConfig) {
			cfg.Registry.Assets = append(cfg.Registry.Assets, cfg.Registry.Assets[0])
		}, false},
		{"negative minimum", func(cfg *OracleConfig) { cfg.Registry.Assets[0].MinimumBond = -5 }, false},
		{"arbiter without operator", func(cfg *OracleConfig) { cfg.Arbiter.Operator = "" }, false},
		{"disabled arbiter without operator", func(cfg *OracleConfig) {
			cfg.Arbiter.Operator = ""
			cfg.Arbiter.Enabled = false
		}, true},
		{"empty allocation", func(cfg *OracleConfig) {
			cfg.Genesis.Allocations = []Allocation{{Address: "02cc", Asset: "ORCL"}}
		}, false},
		{"overflowing supply", func(cfg *OracleConfig) {
			cfg.Genesis.Allocations = []Allocation{
				{Address: "02cc", Asset: "ORCL", Amount: math.MaxInt64},
				{Address: "02dd", Asset: "ORCL", Amount: 1},
			}
		}, false},
		{"large supply in two assets", func(cfg *OracleConfig) {
			cfg.Genesis.Allocations = []Allocation{
				{Address: "02cc", Asset: "ORCL", Amount: math.MaxInt64},
				{Address: "02cc", Asset: "USDC", Amount: math.MaxInt64},
			}
		}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultOracleConfig()
			cfg.Arbiter.Operator = "02aa"
			test.modify(cfg)
			if test.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(DefaultOracleConfig().Registry)
	assert.True(t, registry.IsTopicAllowed("price/BTC-USD"))
	assert.False(t, registry.IsTopicAllowed("price/DOGE-USD"))
	assert.True(t, registry.IsAssetAllowed("ORCL"))
	assert.False(t, registry.IsAssetAllowed("OUSD"))
	assert.Equal(t, int64(1000), registry.MinimumBond("ORCL"))
	assert.Equal(t, int64(500), registry.ResolutionFeeBps())
}
