package priceengine

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config is the engine's complete on-disk configuration shape, loaded
// once at startup via LoadConfig.
type Config struct {
	DataDir      string `toml:"data_dir"`
	PublisherKey string `toml:"publisher_key_hex"`

	BlocksPer30Days         uint64  `toml:"blocks_per_30_days"`
	EpochsPerYear           float64 `toml:"epochs_per_year"`
	MultiplierRecalcFreq    uint64  `toml:"multiplier_recalc_freq"`
	FeeRecalcFreq           uint64  `toml:"fee_recalc_freq"`
	EpochFeeRetentionBlocks uint64  `toml:"epoch_fee_retention_blocks"`

	NetworkPercentage     uint8          `toml:"network_percentage"`
	BeneficiaryPercentage uint8          `toml:"beneficiary_percentage"`
	NetworkSink           []SinkTableRow `toml:"network_sink"`
	InitialSupply         uint64         `toml:"initial_supply"`
	SupplyCap             uint64         `toml:"supply_cap"`
	InflationDivisor      uint64         `toml:"inflation_divisor"`

	AccountCacheCapacity int `toml:"account_cache_capacity"`

	LogFile    string `toml:"log_file"`
	LogMaxSize int    `toml:"log_max_size_mb"`
}

// SinkTableRow is one [[network_sink]] entry in the TOML config: the
// network fee sink address in effect from SinceHeight onward.
type SinkTableRow struct {
	SinceHeight uint64 `toml:"since_height"`
	Address     string `toml:"address"`
}

// DefaultConfig returns the network's baseline parameter set, expressed
// as ordinary config defaults rather than compiled-in constants.
func DefaultConfig() Config {
	return Config{
		DataDir:                 "./data",
		BlocksPer30Days:         86400,
		EpochsPerYear:           365,
		MultiplierRecalcFreq:    5,
		FeeRecalcFreq:           10,
		EpochFeeRetentionBlocks: 100,
		NetworkPercentage:       5,
		BeneficiaryPercentage:   5,
		InitialSupply:           10_000_000_000,
		SupplyCap:               100_000_000_000,
		InflationDivisor:        52_560_000,
		AccountCacheCapacity:    100_000,
		LogFile:                 "priceengine.log",
		LogMaxSize:              100,
	}
}

// LoadConfig reads and decodes a TOML config file, filling any field left
// unset in the file from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	if len(cfg.NetworkSink) == 0 {
		return Config{}, errors.New("config: at least one [[network_sink]] entry is required")
	}
	if cfg.PublisherKey == "" {
		return Config{}, errors.New("config: publisher_key_hex is required")
	}
	return cfg, nil
}

// WriteTo encodes cfg as TOML to path, creating it if necessary.
func (c Config) WriteTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}
