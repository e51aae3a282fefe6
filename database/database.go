package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"github.com/ideuxs/toumai-admin/config"
)

// Sentinel errors surfaced to handlers.
var (
	// ErrListingNotFound covers both a missing listing and one the caller is
	// not allowed to touch; the two cases are deliberately not distinguished.
	ErrListingNotFound = errors.New("listing not found or not authorized")

	ErrUserNotFound  = errors.New("user not found")
	ErrAdminNotFound = errors.New("admin not found")
)

// Database handles all database operations.
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Database connected successfully to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	return &Database{db: db}, nil
}

// NewDatabaseFromConn wraps an existing connection. Used by tests.
func NewDatabaseFromConn(db *sql.DB) *Database {
	return &Database{db: db}
}

// DB exposes the underlying connection for services sharing the pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
