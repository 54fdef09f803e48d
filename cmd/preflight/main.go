// cmd/preflight/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/hamed0406/healthchecker/internal/config"
)

func main() {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	fs := pflag.NewFlagSet("preflight", pflag.ExitOnError)
	fs.Int("interval", 15, "health check interval in seconds")
	_ = fs.Parse(os.Args[1:])

	cfg := config.FromEnv(fs)
	if err := cfg.Validate(); err != nil {
		fail("settings: " + err.Error())
	} else {
		ok(fmt.Sprintf("interval=%s probe_timeout=%s max_latency=%s", cfg.Interval, cfg.ProbeTimeout, cfg.MaxLatency))
	}

	if fs.NArg() == 0 {
		fail("no endpoints file given (usage: preflight <config.yaml>)")
	} else {
		b, err := os.ReadFile(fs.Arg(0))
		eps, perr := config.ParseEndpoints(b)
		switch {
		case errors.Is(err, os.ErrNotExist):
			fail(fs.Arg(0) + " does not exist")
		case err != nil:
			fail("read " + fs.Arg(0) + ": " + err.Error())
		case errors.Is(perr, config.ErrNoEndpoints):
			fail(fs.Arg(0) + ": no endpoints configured")
		case perr != nil:
			// One line per invalid entry.
			for _, e := range multierr.Errors(perr) {
				fail(fs.Arg(0) + ": " + e.Error())
			}
		default:
			domains := map[string]struct{}{}
			for _, ep := range eps {
				d, _ := ep.Domain()
				domains[d] = struct{}{}
			}
			ok(fmt.Sprintf("%d endpoints across %d domains", len(eps), len(domains)))
		}
	}

	if cfg.ProbeTimeout > 0 && cfg.ProbeTimeout < cfg.MaxLatency {
		warn("PROBE_TIMEOUT_MS is below MAX_LATENCY_MS; slow endpoints will time out instead of being reported as slow.")
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; results go to CSV and memory only.")
	} else {
		ok("DATABASE_URL present")
	}
	if cfg.SQLitePath != "" {
		ok("SQLITE_PATH=" + cfg.SQLitePath)
	}

	if cfg.StatusAddr == "" {
		warn("STATUS_ADDR empty; status API disabled.")
	} else {
		ok("STATUS_ADDR=" + cfg.StatusAddr)
		if len(cfg.StatusAPIKeys) == 0 {
			warn("STATUS_API_KEYS empty; status API is open to anyone who can reach it.")
		}
		if raw := os.Getenv("STATUS_API_KEYS"); strings.Contains(raw, " ") {
			warn("STATUS_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
