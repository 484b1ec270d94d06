// Package config loads the server's flat option set (spec §6.4) from
// command-line flags, the way the teacher's example mains do it with
// flag.StringVar per option rather than reaching for a config framework no
// repo in the pack uses for a flat flag set.
package config

import (
	"flag"
	"fmt"

	"github.com/lanterndb/lantern/pkg/aof"
)

// Config is the full set of recognized startup options (spec §6.4).
type Config struct {
	Bind                  string
	AOFPath               string
	AOFFsync              string
	MaxClients            int
	ExpirySweepIntervalMs int
	ExpirySweepSample     int
}

// Default matches the defaults named in spec §6.4.
func Default() Config {
	return Config{
		Bind:                  "127.0.0.1:6379",
		AOFPath:               "appendonly.aof",
		AOFFsync:              "everysec",
		MaxClients:            10000,
		ExpirySweepIntervalMs: 100,
		ExpirySweepSample:     20,
	}
}

// Parse builds a Config from the default values overridden by flags parsed
// out of args (typically os.Args[1:]).
func Parse(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("lanternd", flag.ContinueOnError)
	fs.StringVar(&cfg.Bind, "bind", cfg.Bind, "address to listen on, host:port")
	fs.StringVar(&cfg.AOFPath, "aof_path", cfg.AOFPath, "append-only file path")
	fs.StringVar(&cfg.AOFFsync, "aof_fsync", cfg.AOFFsync, "aof fsync policy: always, everysec, no")
	fs.IntVar(&cfg.MaxClients, "maxclients", cfg.MaxClients, "maximum concurrent client connections")
	fs.IntVar(&cfg.ExpirySweepIntervalMs, "expiry_sweep_interval_ms", cfg.ExpirySweepIntervalMs, "active expiry sweep cadence in milliseconds")
	fs.IntVar(&cfg.ExpirySweepSample, "expiry_sweep_sample", cfg.ExpirySweepSample, "keys sampled per active expiry sub-pass")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects recognized-but-malformed option values before the
// server starts.
func (c Config) Validate() error {
	if _, err := aof.ParseFsyncPolicy(c.AOFFsync); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxClients <= 0 {
		return fmt.Errorf("config: maxclients must be positive, got %d", c.MaxClients)
	}
	if c.ExpirySweepIntervalMs <= 0 {
		return fmt.Errorf("config: expiry_sweep_interval_ms must be positive, got %d", c.ExpirySweepIntervalMs)
	}
	if c.ExpirySweepSample <= 0 {
		return fmt.Errorf("config: expiry_sweep_sample must be positive, got %d", c.ExpirySweepSample)
	}
	return nil
}
