package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"docshelf/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
	case "mysql":
		dsn := cfg.DSN
		// DATETIME columns scan into time.Time only with parseTime on.
		if !strings.Contains(dsn, "parseTime") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the metadata table is present.
func Migrate(db *sql.DB, cfg config.DatabaseConfig) error {
	table, err := QuoteIdent(cfg.Table)
	if err != nil {
		return fmt.Errorf("metadata table: %w", err)
	}

	var stmts []string
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				document_name TEXT NOT NULL,
				storage_path TEXT NOT NULL UNIQUE,
				tag TEXT NOT NULL DEFAULT '[]',
				summary TEXT,
				summary_updated_at DATETIME,
				note_taking TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`, table),
		}
	case "mysql":
		stmts = []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				document_name VARCHAR(255) NOT NULL,
				storage_path VARCHAR(512) NOT NULL,
				tag TEXT NOT NULL,
				summary MEDIUMTEXT,
				summary_updated_at DATETIME,
				note_taking MEDIUMTEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				UNIQUE KEY uniq_storage_path (storage_path)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, table),
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", cfg.Driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", cfg.Driver, err)
		}
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdent validates and quotes a SQL identifier. Backticks are
// understood by both supported drivers.
func QuoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return "`" + name + "`", nil
}
