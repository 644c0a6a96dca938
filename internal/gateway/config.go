package gateway

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults target the marketplace deployment the scoring application is
// published to.
const (
	defaultAppAddress        = "0x48fa09C008C382Fe8E892742ab8e43117D797dcb"
	defaultWorkerpoolAddress = "0xb967057a21dc6a66a29721d96b8aa7454b7c383f"
	defaultExplorerBaseURL   = "https://explorer.iex.ec/arbitrum-sepolia-testnet"
	defaultChainID           = 421614
	defaultCategory          = 3
	defaultMaxPrice          = 1_000_000_000
	defaultAccessCount       = 100
	defaultMinStake          = 1_000_000_000
)

// Config holds marketplace connection and dispatch parameters.
type Config struct {
	BaseURL            string `toml:"base_url"`
	ExplorerBaseURL    string `toml:"explorer_base_url"`
	ChainID            int64  `toml:"chain_id"`
	RequesterAddress   string `toml:"requester_address"`
	AppAddress         string `toml:"app_address"`
	WorkerpoolAddress  string `toml:"workerpool_address"`
	Category           int    `toml:"category"`
	AppMaxPrice        int64  `toml:"app_max_price"`
	WorkerpoolMaxPrice int64  `toml:"workerpool_max_price"`
	AccessCount        int    `toml:"access_count"`
	MinStake           int64  `toml:"min_stake"`
	PollInterval       string `toml:"poll_interval"`
	RequestTimeout     string `toml:"request_timeout"`

	pollInterval   time.Duration
	requestTimeout time.Duration
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL          string
	RequesterAddress string
	AppAddress       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.ExplorerBaseURL != "" {
		c.ExplorerBaseURL = overlay.ExplorerBaseURL
	}
	if overlay.ChainID > 0 {
		c.ChainID = overlay.ChainID
	}
	if overlay.RequesterAddress != "" {
		c.RequesterAddress = overlay.RequesterAddress
	}
	if overlay.AppAddress != "" {
		c.AppAddress = overlay.AppAddress
	}
	if overlay.WorkerpoolAddress != "" {
		c.WorkerpoolAddress = overlay.WorkerpoolAddress
	}
	if overlay.Category > 0 {
		c.Category = overlay.Category
	}
	if overlay.AppMaxPrice > 0 {
		c.AppMaxPrice = overlay.AppMaxPrice
	}
	if overlay.WorkerpoolMaxPrice > 0 {
		c.WorkerpoolMaxPrice = overlay.WorkerpoolMaxPrice
	}
	if overlay.AccessCount > 0 {
		c.AccessCount = overlay.AccessCount
	}
	if overlay.MinStake > 0 {
		c.MinStake = overlay.MinStake
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
}

// PollIntervalDuration returns the parsed dispatch polling interval.
func (c *Config) PollIntervalDuration() time.Duration {
	return c.pollInterval
}

// RequestTimeoutDuration returns the parsed per-request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return c.requestTimeout
}

func (c *Config) loadDefaults() {
	if c.ExplorerBaseURL == "" {
		c.ExplorerBaseURL = defaultExplorerBaseURL
	}
	if c.ChainID == 0 {
		c.ChainID = defaultChainID
	}
	if c.AppAddress == "" {
		c.AppAddress = defaultAppAddress
	}
	if c.WorkerpoolAddress == "" {
		c.WorkerpoolAddress = defaultWorkerpoolAddress
	}
	if c.Category == 0 {
		c.Category = defaultCategory
	}
	if c.AppMaxPrice == 0 {
		c.AppMaxPrice = defaultMaxPrice
	}
	if c.WorkerpoolMaxPrice == 0 {
		c.WorkerpoolMaxPrice = defaultMaxPrice
	}
	if c.AccessCount == 0 {
		c.AccessCount = defaultAccessCount
	}
	if c.MinStake == 0 {
		c.MinStake = defaultMinStake
	}
	if c.PollInterval == "" {
		c.PollInterval = "3s"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "90s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.RequesterAddress != "" {
		if v := os.Getenv(env.RequesterAddress); v != "" {
			c.RequesterAddress = v
		}
	}
	if env.AppAddress != "" {
		if v := os.Getenv(env.AppAddress); v != "" {
			c.AppAddress = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	var err error
	if c.pollInterval, err = time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("poll_interval: %w", err)
	}
	if c.requestTimeout, err = time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func (c *Config) chainLabel() string {
	return strconv.FormatInt(c.ChainID, 10)
}
