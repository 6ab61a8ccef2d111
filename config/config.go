package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"math"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const FileName = "oracle.toml"

// OracleConfig is the oracle part of the node configuration, kept next to
// the tendermint config.toml.
type OracleConfig struct {
	ChainID    string           `mapstructure:"chain_id" toml:"chain_id"`
	Registry   RegistryConfig   `mapstructure:"registry" toml:"registry"`
	Governance GovernanceConfig `mapstructure:"governance" toml:"governance"`
	Arbiter    ArbiterConfig    `mapstructure:"arbiter" toml:"arbiter"`
	Genesis    GenesisConfig    `mapstructure:"genesis" toml:"genesis"`
	API        APIConfig        `mapstructure:"api" toml:"api"`
}

type RegistryConfig struct {
	Topics []string      `mapstructure:"topics" toml:"topics"`
	Assets []AssetConfig `mapstructure:"assets" toml:"assets"`
	FeeBps int64         `mapstructure:"fee_bps" toml:"fee_bps"`
}

type AssetConfig struct {
	Name        string `mapstructure:"name" toml:"name"`
	MinimumBond int64  `mapstructure:"minimum_bond" toml:"minimum_bond"`
}

// GovernanceConfig names the address allowed to enable and disable resolvers.
type GovernanceConfig struct {
	Admin string `mapstructure:"admin" toml:"admin"`
}

// ArbiterConfig describes the resolver built into the node. Only the operator
// address may accept its disputes' resolutions.
type ArbiterConfig struct {
	Operator string `mapstructure:"operator" toml:"operator"`
	Enabled  bool   `mapstructure:"enabled" toml:"enabled"`
}

type GenesisConfig struct {
	Allocations []Allocation `mapstructure:"allocations" toml:"allocations"`
}

type Allocation struct {
	Address string `mapstructure:"address" toml:"address"`
	Asset   string `mapstructure:"asset" toml:"asset"`
	Amount  int64  `mapstructure:"amount" toml:"amount"`
}

// APIConfig configures the read only HTTP explorer. An empty Listen disables it.
type APIConfig struct {
	Listen string `mapstructure:"listen" toml:"listen"`
}

func DefaultOracleConfig() *OracleConfig {
	return &OracleConfig{
		ChainID: "oracle-chain",
		Registry: RegistryConfig{
			Topics: []string{"price/BTC-USD", "price/ETH-USD", "sports/result", "weather/rainfall"},
			Assets: []AssetConfig{{Name: "ORCL", MinimumBond: 1000}},
			FeeBps: 500,
		},
		Arbiter: ArbiterConfig{Enabled: true},
		API:     APIConfig{Listen: "127.0.0.1:26680"},
	}
}

func (cfg *OracleConfig) Validate() error {
	if cfg.ChainID == "" {
		return errors.New("chain_id is empty")
	}
	if cfg.Registry.FeeBps < 0 || cfg.Registry.FeeBps > 10000 {
		return fmt.Errorf("fee_bps %d out of range [0, 10000]", cfg.Registry.FeeBps)
	}
	seen := make(map[string]bool)
	for _, asset := range cfg.Registry.Assets {
		if asset.Name == "" {
			return errors.New("asset without name")
		}
		if seen[asset.Name] {
			return fmt.Errorf("asset %s listed twice", asset.Name)
		}
		if asset.MinimumBond < 0 {
			return fmt.Errorf("asset %s has negative minimum bond", asset.Name)
		}
		seen[asset.Name] = true
	}
	if cfg.Arbiter.Enabled && cfg.Arbiter.Operator == "" {
		return errors.New("arbiter is enabled but has no operator")
	}
	supply := make(map[string]int64)
	for _, allocation := range cfg.Genesis.Allocations {
		if allocation.Address == "" || allocation.Asset == "" || allocation.Amount <= 0 {
			return fmt.Errorf("invalid genesis allocation %+v", allocation)
		}
		if supply[allocation.Asset] > math.MaxInt64-allocation.Amount {
			return fmt.Errorf("genesis supply of %s overflows", allocation.Asset)
		}
		supply[allocation.Asset] += allocation.Amount
	}
	return nil
}

// Load reads an oracle.toml. Missing scalar keys take their default value,
// lists are taken from the file only.
func Load(path string) (*OracleConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read oracle config: %w", err)
	}
	defaults := DefaultOracleConfig()
	v.SetDefault("chain_id", defaults.ChainID)
	v.SetDefault("registry.fee_bps", defaults.Registry.FeeBps)
	v.SetDefault("arbiter.enabled", defaults.Arbiter.Enabled)
	v.SetDefault("api.listen", defaults.API.Listen)
	cfg := &OracleConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse oracle config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid oracle config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *OracleConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode oracle config: %w", err)
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write oracle config: %w", err)
	}
	return nil
}

// ---- //
// REGISTRY

// Registry answers the oracle's whitelist and fee questions from the
// registry section of the configuration.
type Registry struct {
	topics map[string]bool
	assets map[string]int64
	feeBps int64
}

func NewRegistry(cfg RegistryConfig) *Registry {
	registry := &Registry{
		topics: make(map[string]bool, len(cfg.Topics)),
		assets: make(map[string]int64, len(cfg.Assets)),
		feeBps: cfg.FeeBps,
	}
	for _, topic := range cfg.Topics {
		registry.topics[topic] = true
	}
	for _, asset := range cfg.Assets {
		registry.assets[asset.Name] = asset.MinimumBond
	}
	return registry
}

func (registry *Registry) IsTopicAllowed(topic string) bool {
	return registry.topics[topic]
}

func (registry *Registry) IsAssetAllowed(asset string) bool {
	_, ok := registry.assets[asset]
	return ok
}

func (registry *Registry) MinimumBond(asset string) int64 {
	return registry.assets[asset]
}

func (registry *Registry) ResolutionFeeBps() int64 {
	return registry.feeBps
}
