package config

import (
	"flag"
	"os"
	"time"

	"github.com/mixcore/sdk-go/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the Mixcore instance
//	-t int      request timeout in seconds
//	-ttl int    cache TTL in seconds
//	-s string   session store kind: memory, file or sqlite
//	-d string   data directory for persistent session stores
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so the -c/-config flags handled elsewhere do not
// interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-ttl", "-s", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "a", cfg.Endpoint, "base URL of the Mixcore instance")
	timeout := fs.Int("t", int(cfg.Timeout.Seconds()), "request timeout (in seconds)")
	cacheTTL := fs.Int("ttl", int(cfg.CacheTTL.Seconds()), "cache TTL (in seconds)")
	fs.StringVar(&cfg.StoreKind, "s", cfg.StoreKind, "session store: memory, file or sqlite")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for persistent session stores")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Timeout = time.Duration(*timeout) * time.Second
	cfg.CacheTTL = time.Duration(*cacheTTL) * time.Second
}
