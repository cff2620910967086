package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mixcore/sdk-go/internal/flagx"
	"github.com/mixcore/sdk-go/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify durations either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JSONConfig struct {
	Endpoint  string         `json:"endpoint"`
	Timeout   timex.Duration `json:"timeout"`
	CacheTTL  timex.Duration `json:"cache_ttl"`
	StoreKind string         `json:"store"`
	DataDir   string         `json:"data_dir"`
}

// parseJSON overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; with neither present nothing is
// loaded. Only fields present in the file override the current values.
// Read and unmarshal errors panic, matching parseFlags.
func parseJSON(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != "" {
		cfg.Endpoint = jc.Endpoint
	}
	if jc.Timeout.Duration > 0 {
		cfg.Timeout = time.Duration(jc.Timeout.Duration)
	}
	if jc.CacheTTL.Duration > 0 {
		cfg.CacheTTL = time.Duration(jc.CacheTTL.Duration)
	}
	if jc.StoreKind != "" {
		cfg.StoreKind = jc.StoreKind
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
}
