// Package config loads runtime settings for the mixc CLI from defaults, an
// optional JSON file and command-line flags, in that order of precedence.
package config

import (
	"time"

	"github.com/mixcore/sdk-go/common"
)

// Store kinds accepted by the -s flag.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds runtime settings for the mixc CLI.
//
// Fields:
//   - Endpoint: base URL of the Mixcore instance.
//   - Timeout: per-request HTTP timeout.
//   - CacheTTL: how long data reads stay cached.
//   - StoreKind: session persistence backend (memory, file or sqlite).
//   - DataDir: directory for file/sqlite session stores, relative to cwd.
type Config struct {
	Endpoint  string
	Timeout   time.Duration
	CacheTTL  time.Duration
	StoreKind string
	DataDir   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Endpoint = common.DefaultEndpoint
	c.Timeout = 30 * time.Second
	c.CacheTTL = 5 * time.Minute
	c.StoreKind = StoreMemory
	c.DataDir = ".mixc"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
