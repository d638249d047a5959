package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sensor-alert-service/internal/models"
)

const configColumns = `id, temp_max::float8, humidity_max::float8, is_active, created_at, updated_at`

const (
	currentConfigQuery = `SELECT ` + configColumns + `
	FROM configs
	WHERE is_active
	ORDER BY created_at DESC, id DESC
	LIMIT 1`

	deactivateConfigsStmt = `UPDATE configs SET is_active = FALSE, updated_at = $1 WHERE is_active`

	insertConfigStmt = `
	INSERT INTO configs (temp_max, humidity_max, is_active, created_at, updated_at)
	VALUES ($1, $2, TRUE, $3, $4)
	RETURNING id`

	configVersionsQuery = `SELECT ` + configColumns + `
	FROM configs
	ORDER BY created_at DESC, id DESC
	LIMIT $1`
)

// GetCurrentConfig returns the newest active config version.
func (d *DB) GetCurrentConfig(ctx context.Context) (*models.ThresholdConfig, error) {
	var c models.ThresholdConfig
	err := d.Pool.QueryRow(ctx, currentConfigQuery).Scan(&c.ID, &c.TempMax, &c.HumidityMax, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("current config: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get current config: %w", err)
	}
	return &c, nil
}

// ReplaceActiveConfig deactivates every active version and inserts cfg as the
// new current one, in a single transaction.
func (d *DB) ReplaceActiveConfig(ctx context.Context, cfg *models.ThresholdConfig) (*models.ThresholdConfig, error) {
	saved := *cfg
	saved.IsActive = true

	err := pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, deactivateConfigsStmt, now); err != nil {
			return fmt.Errorf("failed to deactivate configs: %w", err)
		}

		err := tx.QueryRow(ctx, insertConfigStmt,
			saved.TempMax, saved.HumidityMax, saved.CreatedAt, saved.UpdatedAt,
		).Scan(&saved.ID)
		if err != nil {
			return fmt.Errorf("failed to insert config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListConfigVersions returns the newest versions first, active or not.
func (d *DB) ListConfigVersions(ctx context.Context, limit int) ([]models.ThresholdConfig, error) {
	rows, err := d.Pool.Query(ctx, configVersionsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	var list []models.ThresholdConfig
	for rows.Next() {
		var c models.ThresholdConfig
		if err := rows.Scan(&c.ID, &c.TempMax, &c.HumidityMax, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configs: %w", err)
	}
	return list, nil
}
