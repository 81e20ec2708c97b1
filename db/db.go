package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/pressly/goose/v3"

	"github.com/Dosada05/league-rating-system/store"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// Connect opens the database for the given driver ("postgres" or
// "sqlite3"), configures the pool, verifies the connection and applies
// pending migrations.
func Connect(driver, dsn string, timeout time.Duration) (*sql.DB, store.Dialect, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	if dialect == store.DialectSQLite {
		if err := applySQLitePragmas(db); err != nil {
			_ = db.Close()
			return nil, "", err
		}
	}

	if err := runMigrations(db, dialect); err != nil {
		_ = db.Close()
		return nil, "", err
	}

	return db, dialect, nil
}

func dialectFor(driver string) (store.Dialect, error) {
	switch driver {
	case "postgres":
		return store.DialectPostgres, nil
	case "sqlite3":
		return store.DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", driver)
	}
}

func runMigrations(db *sql.DB, dialect store.Dialect) error {
	goose.SetBaseFS(embedMigrations)

	dir := "migrations/postgres"
	gooseDialect := "postgres"
	if dialect == store.DialectSQLite {
		dir = "migrations/sqlite"
		gooseDialect = "sqlite3"
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func applySQLitePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}
