package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// Schema contains the database schema for the admin service. The marketplace
// tables (product, users, product_images, report_user) are owned by the
// mobile backend; they are created here IF NOT EXISTS so the service can run
// against an empty database in development.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(64) PRIMARY KEY,
    firstname VARCHAR(128) NOT NULL,
    lastname VARCHAR(128) NOT NULL DEFAULT '',
    email VARCHAR(256) NOT NULL,
    device_token VARCHAR(512),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_users_email (email)
);

CREATE TABLE IF NOT EXISTS product (
    id_product BIGINT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(256),
    titre VARCHAR(256),
    description TEXT,
    price DECIMAL(12,2),
    prix DECIMAL(12,2),
    category VARCHAR(128),
    state ENUM('pending', 'approved', 'declined') DEFAULT 'pending',
    etat ENUM('pending', 'approved', 'declined'),
    owner_id VARCHAR(64),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_product_state (state),
    INDEX idx_product_owner (owner_id)
);

CREATE TABLE IF NOT EXISTS product_images (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    product_id BIGINT NOT NULL,
    image_url VARCHAR(1024) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_product_images_product (product_id)
);

CREATE TABLE IF NOT EXISTS report_user (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    id_user VARCHAR(64) NOT NULL,
    id_product BIGINT NOT NULL,
    reason TEXT NOT NULL,
    category_report VARCHAR(128) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_report_user_product (id_product)
);

CREATE TABLE IF NOT EXISTS admin_users (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL UNIQUE,
    password_hash VARCHAR(256) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admin_tokens (
    id INT AUTO_INCREMENT PRIMARY KEY,
    admin_id VARCHAR(64) NOT NULL,
    token_hash VARCHAR(256) NOT NULL,
    token_type ENUM('access', 'refresh') DEFAULT 'access',
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (admin_id) REFERENCES admin_users(id) ON DELETE CASCADE,
    INDEX idx_admin_token_type (admin_id, token_type)
);

CREATE TABLE IF NOT EXISTS password_resets (
    id INT AUTO_INCREMENT PRIMARY KEY,
    admin_id VARCHAR(64) NOT NULL,
    token_hash VARCHAR(256) NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    used_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (admin_id) REFERENCES admin_users(id) ON DELETE CASCADE,
    INDEX idx_password_resets_hash (token_hash)
);

CREATE TABLE IF NOT EXISTS moderation_events (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    actor VARCHAR(256),
    action VARCHAR(64) NOT NULL,
    target_type VARCHAR(64) NOT NULL,
    target_id VARCHAR(64) NOT NULL,
    details JSON,
    request_id VARCHAR(64),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_moderation_events_target (target_type, target_id)
);

CREATE TABLE IF NOT EXISTS schema_migrations (
    version INT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrations list all database migrations.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "backfill_state_from_etat",
		// Older producers wrote only the French column; the canonical column
		// must agree before the adapter can rely on COALESCE for reads.
		Up: `
			UPDATE product SET state = etat WHERE etat IS NOT NULL AND state IS NULL;
		`,
	},
	{
		Version: 2,
		Name:    "add_device_token_index",
		Up: `
			SET @preparedStatement = (SELECT IF(
				(SELECT COUNT(*) FROM INFORMATION_SCHEMA.STATISTICS
				WHERE TABLE_SCHEMA = DATABASE()
				AND TABLE_NAME = 'users'
				AND INDEX_NAME = 'idx_users_device_token') = 0,
				'ALTER TABLE users ADD INDEX idx_users_device_token (device_token(255));',
				'SELECT 1;'
			));
			PREPARE addIndexIfNotExists FROM @preparedStatement;
			EXECUTE addIndexIfNotExists;
			DEALLOCATE PREPARE addIndexIfNotExists;
		`,
	},
}

// InitializeSchema creates the database schema and runs migrations.
func InitializeSchema(db *sql.DB) error {
	// Create tables
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Run migrations
	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database schema initialized successfully")
	return nil
}

// RunMigrations applies all pending database migrations.
func RunMigrations(db *sql.DB) error {
	// Get applied migrations
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	// Apply pending migrations
	for _, migration := range Migrations {
		if !applied[migration.Version] {
			log.Infof("Applying migration %d: %s", migration.Version, migration.Name)

			if _, err := db.Exec(migration.Up); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
			}

			if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}
		}
	}

	return nil
}
