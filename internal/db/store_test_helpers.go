package db

import (
	"os"
	"testing"
)

// NewTestConfig returns a DBConfig for in-memory SQLite testing.
func NewTestConfig() DBConfig {
	return DBConfig{Type: DialectSQLite, Path: ":memory:"}
}

// NewTestConfigWithPath returns a DBConfig for SQLite testing at a specific
// file path (useful when a test needs the store to outlive a single
// connection, e.g. across an httptest.Server).
func NewTestConfigWithPath(path string) DBConfig {
	return DBConfig{Type: DialectSQLite, Path: path}
}

// NewPostgresTestConfig returns a DBConfig for PostgreSQL testing, or nil if
// TEST_POSTGRES_URL is not set.
func NewPostgresTestConfig() *DBConfig {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		return nil
	}
	return &DBConfig{Type: DialectPostgres, URL: url}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(NewTestConfig())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

type TestDBConfig struct {
	Name   string
	Config DBConfig
}

// GetTestConfigs returns every database configuration available to the
// current test run: SQLite always, PostgreSQL when TEST_POSTGRES_URL is set.
func GetTestConfigs(t *testing.T) []TestDBConfig {
	configs := []TestDBConfig{{Name: "SQLite", Config: NewTestConfig()}}
	if pg := NewPostgresTestConfig(); pg != nil {
		configs = append(configs, TestDBConfig{Name: "PostgreSQL", Config: *pg})
	}
	return configs
}

// RunTestWithBothDBs runs testFn against every available backend.
func RunTestWithBothDBs(t *testing.T, name string, testFn func(t *testing.T, store *Store)) {
	for _, cfg := range GetTestConfigs(t) {
		t.Run(cfg.Name, func(t *testing.T) {
			store, err := NewStore(cfg.Config)
			if err != nil {
				t.Fatalf("failed to create %s store: %v", cfg.Name, err)
			}
			defer func() { _ = store.Close() }()

			testFn(t, store)

			if cfg.Config.Type == DialectPostgres {
				_ = store.Reset()
			}
		})
	}
}
