package db

import (
	"context"
	"fmt"

	"sensor-alert-service/internal/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS configs (
		id           BIGSERIAL PRIMARY KEY,
		temp_max     NUMERIC(6,2) NOT NULL CHECK (temp_max > 0),
		humidity_max NUMERIC(5,2) NOT NULL CHECK (humidity_max > 0 AND humidity_max <= 100),
		is_active    BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ  NOT NULL,
		updated_at   TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_configs_active_created ON configs (is_active, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id         BIGSERIAL PRIMARY KEY,
		type       VARCHAR(20)  NOT NULL,
		value      NUMERIC(6,2) NOT NULL,
		threshold  NUMERIC(6,2) NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL,
		status     VARCHAR(20)  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts (status)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(100) NOT NULL UNIQUE,
		password_hash TEXT         NOT NULL
	)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Seed inserts the first config version and the first user on an empty database.
func (d *DB) Seed(ctx context.Context, cfg *models.ThresholdConfig, user *models.User) error {
	var configs int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM configs`).Scan(&configs); err != nil {
		return fmt.Errorf("failed to count configs: %w", err)
	}
	if configs == 0 {
		if _, err := d.ReplaceActiveConfig(ctx, cfg); err != nil {
			return err
		}
	}

	var users int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if users == 0 {
		if err := d.CreateUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}
