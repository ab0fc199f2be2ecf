// Package db implements the dialect-portable relational store backing the
// data model in spec §3. It supports SQLite (local/dev) and PostgreSQL
// (production) behind one Store type, following the teacher's db.Store
// shape: a single rebind() helper that rewrites `?` placeholders to `$N`
// for Postgres, goose-driven migrations loaded from an embedded FS, and a
// development-only whitelisted table reset.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrationFS embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrationFS embed.FS

// DBConfig holds database configuration.
type DBConfig struct {
	Type string // "sqlite" or "postgres"
	Path string // sqlite file path (or ":memory:")
	URL  string // postgres connection URL
}

type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore opens (and migrates) a store for the given configuration.
func NewStore(cfg DBConfig) (*Store, error) {
	var sqlDB *sql.DB
	var err error
	var dialect string

	switch cfg.Type {
	case DialectPostgres, "postgresql":
		dialect = DialectPostgres
		sqlDB, err = sql.Open("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		dialect = DialectSQLite
		sqlDB, err = sql.Open("sqlite3", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite supports one writer at a time; pinning the pool to a
		// single connection also keeps ":memory:" databases coherent
		// across the connection pool.
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, err
		}
	}

	s := &Store{db: sqlDB, dialect: dialect}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Dialect() string { return s.dialect }
func (s *Store) IsSQLite() bool  { return s.dialect == DialectSQLite }
func (s *Store) IsPostgres() bool { return s.dialect == DialectPostgres }

func (s *Store) Close() error { return s.db.Close() }

// PingContext checks database reachability for the readiness probe.
func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind converts `?` placeholders to `$1, $2, ...` for PostgreSQL; SQLite
// queries pass through unchanged.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var result []byte
	placeholder := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, []byte(fmt.Sprintf("%d", placeholder))...)
			placeholder++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

func (s *Store) migrate() error {
	var embedFS embed.FS
	var migrationPath string
	var gooseDialect goose.Dialect

	switch s.dialect {
	case DialectPostgres:
		embedFS = postgresMigrationFS
		migrationPath = "migrations/postgres"
		gooseDialect = goose.DialectPostgres
	default:
		embedFS = sqliteMigrationFS
		migrationPath = "migrations/sqlite"
		gooseDialect = goose.DialectSQLite3
	}

	migrationsDir, err := fs.Sub(embedFS, migrationPath)
	if err != nil {
		return err
	}

	// Provider API is thread-safe, avoiding the global-state races the
	// package-level goose functions have across parallel tests.
	provider, err := goose.NewProvider(gooseDialect, s.db, migrationsDir)
	if err != nil {
		return err
	}

	log.Println("running database migrations...")
	if _, err := provider.Up(context.Background()); err != nil {
		return err
	}
	log.Println("database migrations complete")
	return nil
}

// allowedResetTables whitelists the tables Reset() is permitted to drop.
// SECURITY: defense in depth against SQL injection even though the table
// list is currently hardcoded and never derived from user input.
var allowedResetTables = map[string]bool{
	"monitors":                 true,
	"monitor_states":           true,
	"check_results":            true,
	"outages":                  true,
	"incidents":                true,
	"incident_monitors":        true,
	"incident_updates":         true,
	"maintenance_windows":      true,
	"maintenance_monitors":     true,
	"notification_channels":    true,
	"notification_deliveries":  true,
	"monitor_daily_rollups":    true,
	"locks":                    true,
	"public_snapshots":         true,
	"settings":                 true,
	"goose_db_version":         true,
}

func isValidTableName(table string) bool { return allowedResetTables[table] }

// Reset drops and recreates every table. Intended for development/test
// environments only; callers gate it behind the admin bearer token.
func (s *Store) Reset() error {
	if s.dialect == DialectSQLite {
		if _, err := s.db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
			return err
		}
	}

	tables := []string{
		"notification_deliveries", "notification_channels",
		"incident_updates", "incident_monitors", "incidents",
		"maintenance_monitors", "maintenance_windows",
		"monitor_daily_rollups", "outages", "check_results",
		"monitor_states", "monitors",
		"locks", "public_snapshots", "settings",
		"goose_db_version",
	}

	for _, table := range tables {
		if !isValidTableName(table) {
			return fmt.Errorf("invalid table name: %s", table)
		}
		stmt := "DROP TABLE IF EXISTS " + table
		if s.dialect == DialectPostgres {
			stmt += " CASCADE"
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	if s.dialect == DialectSQLite {
		if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return err
		}
	}

	return s.migrate()
}
