// Package config loads runtime configuration from the environment, with
// defaults suitable for local development against an in-process SQLite file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ListenAddr string

	DBDriver string // "sqlite" or "postgres"
	DBPath   string // sqlite file path
	DBURL    string // postgres connection URL

	AdminToken string // bearer secret required by /admin/*

	ProbeConcurrency      int // K, scheduler worker pool size
	SchedulerLeaseSeconds int
	RollupLeaseSeconds    int
	SnapshotMaxAgeSeconds int
	SnapshotRefreshSeconds int
	DefaultTimeoutMS      int

	FlapF int // consecutive failures required to open an outage
	FlapS int // consecutive successes required to close an outage
}

func Default() Config {
	return Config{
		ListenAddr: ":9096",

		DBDriver: "sqlite",
		DBPath:   "sentinel.db",

		AdminToken: "",

		ProbeConcurrency:       5,
		SchedulerLeaseSeconds:  55,
		RollupLeaseSeconds:     600,
		SnapshotMaxAgeSeconds:  60,
		SnapshotRefreshSeconds: 30,
		DefaultTimeoutMS:       5000,

		FlapF: 1,
		FlapS: 1,
	}
}

// Load builds a Config from Default() overridden by environment variables.
func Load() (Config, error) {
	cfg := Default()

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		cfg.DBURL = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}

	if err := intEnv("PROBE_CONCURRENCY", &cfg.ProbeConcurrency); err != nil {
		return Config{}, err
	}
	if err := intEnv("SCHEDULER_LEASE_SECONDS", &cfg.SchedulerLeaseSeconds); err != nil {
		return Config{}, err
	}
	if err := intEnv("ROLLUP_LEASE_SECONDS", &cfg.RollupLeaseSeconds); err != nil {
		return Config{}, err
	}
	if err := intEnv("SNAPSHOT_MAX_AGE_SECONDS", &cfg.SnapshotMaxAgeSeconds); err != nil {
		return Config{}, err
	}
	if err := intEnv("SNAPSHOT_REFRESH_SECONDS", &cfg.SnapshotRefreshSeconds); err != nil {
		return Config{}, err
	}
	if err := intEnv("DEFAULT_TIMEOUT_MS", &cfg.DefaultTimeoutMS); err != nil {
		return Config{}, err
	}
	if err := intEnv("FLAP_F", &cfg.FlapF); err != nil {
		return Config{}, err
	}
	if err := intEnv("FLAP_S", &cfg.FlapS); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func intEnv(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}
