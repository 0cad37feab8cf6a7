package infra

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config holds the full daemon configuration. Secrets never live in the yaml
// file; LoadConfig overlays them from the environment afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Market struct {
		// Marketplace and fee-owner identities on the ledger.
		Address string `yaml:"address"`
		Owner   string `yaml:"owner"`
		// ListingFee is the fixed fee in native base units, decimal string.
		ListingFee string `yaml:"listing_fee"`
		// Authority is the trusted attestation signer's address. Overridden
		// by NFTMARKET_AUTHORITY_KEY when a dev signer key is supplied.
		Authority string `yaml:"authority"`
		// AuthorityKey is only ever populated from the environment.
		AuthorityKey string `yaml:"-"`
		InboxSize    int    `yaml:"inbox_size"`
	} `yaml:"market"`

	Contracts struct {
		Fungibles []FungibleConfig `yaml:"fungibles"`
		Assets    []AssetConfig    `yaml:"assets"`
	} `yaml:"contracts"`

	Feed struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Media struct {
		Dir           string `yaml:"dir"`
		ThumbnailSize int    `yaml:"thumbnail_size"`
	} `yaml:"media"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// FungibleConfig declares one payment token ledger.
type FungibleConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
}

// AssetConfig declares one asset contract ledger.
type AssetConfig struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	Symbol  string `yaml:"symbol"`
	// Kind is "nft", "rentable" or "multi".
	Kind string `yaml:"kind"`
}

// LoadConfig reads and validates the yaml configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overlays secrets and deploy-time overrides.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("NFTMARKET_AUTHORITY_KEY"); key != "" {
		cfg.Market.AuthorityKey = key
	}
	if addr := os.Getenv("NFTMARKET_FEED_ADDR"); addr != "" {
		cfg.Feed.ListenAddr = addr
	}
	if path := os.Getenv("NFTMARKET_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Market.Address) {
		return fmt.Errorf("invalid marketplace address: %q", c.Market.Address)
	}
	if !common.IsHexAddress(c.Market.Owner) {
		return fmt.Errorf("invalid owner address: %q", c.Market.Owner)
	}
	if c.Market.Authority == "" && c.Market.AuthorityKey == "" {
		return fmt.Errorf("either market.authority or NFTMARKET_AUTHORITY_KEY is required")
	}
	if c.Market.Authority != "" && !common.IsHexAddress(c.Market.Authority) {
		return fmt.Errorf("invalid authority address: %q", c.Market.Authority)
	}
	if _, ok := c.ListingFee(); !ok {
		return fmt.Errorf("invalid listing fee: %q", c.Market.ListingFee)
	}
	if c.Market.InboxSize <= 0 {
		return fmt.Errorf("inbox size must be positive")
	}
	for _, f := range c.Contracts.Fungibles {
		if !common.IsHexAddress(f.Address) {
			return fmt.Errorf("invalid fungible address: %q", f.Address)
		}
	}
	for _, a := range c.Contracts.Assets {
		if !common.IsHexAddress(a.Address) {
			return fmt.Errorf("invalid asset address: %q", a.Address)
		}
		switch strings.ToLower(a.Kind) {
		case "nft", "rentable", "multi":
		default:
			return fmt.Errorf("unknown asset kind %q for %s", a.Kind, a.Address)
		}
	}
	return nil
}

// ListingFee parses the configured fee. ok is false when it is not a
// non-negative decimal integer.
func (c *Config) ListingFee() (*big.Int, bool) {
	fee, ok := new(big.Int).SetString(c.Market.ListingFee, 10)
	if !ok || fee.Sign() < 0 {
		return nil, false
	}
	return fee, true
}
