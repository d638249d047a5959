package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"sensor-alert-service/internal/models"
)

const alertColumns = `id, type, value::float8, threshold::float8, created_at, status`

// CreateAlert inserts a new alert and fills in its generated id.
func (d *DB) CreateAlert(ctx context.Context, alert *models.Alert) error {
	query := `
	INSERT INTO alerts (type, value, threshold, created_at, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

	err := d.Pool.QueryRow(ctx, query,
		string(alert.Type),
		alert.Value,
		alert.Threshold,
		alert.CreatedAt,
		string(alert.Status),
	).Scan(&alert.ID)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (d *DB) GetAlertByID(ctx context.Context, id int64) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	a, err := scanAlert(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert %d: %w", id, err)
	}
	return &a, nil
}

// UpdateAlertStatus moves an alert from one status to another. When the row is
// no longer in the expected status the update is rejected with ErrConflict.
func (d *DB) UpdateAlertStatus(ctx context.Context, id int64, from, to models.AlertStatus) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE alerts SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("alert %d is no longer %s: %w", id, from, models.ErrConflict)
	}
	return nil
}

// ListAlerts fetches one page of alerts, newest first, plus the total count of
// rows matching the filter.
func (d *DB) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	countQ, listQ, args := alertListQuery(filter.Normalize())

	var total int
	if err := d.Pool.QueryRow(ctx, countQ, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	rows, err := d.Pool.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read alerts: %w", err)
	}

	return list, total, nil
}

// alertListQuery builds the count and page queries for a normalized filter.
// The last two args are LIMIT and OFFSET and only belong to the page query.
func alertListQuery(filter models.AlertFilter) (string, string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	countQ := `SELECT COUNT(*) FROM alerts` + where
	listQ := `SELECT ` + alertColumns + ` FROM alerts` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())
	return countQ, listQ, args
}

func scanAlert(row pgx.Row) (models.Alert, error) {
	var a models.Alert
	var kind, status string
	if err := row.Scan(&a.ID, &kind, &a.Value, &a.Threshold, &a.CreatedAt, &status); err != nil {
		return models.Alert{}, err
	}
	a.Type = models.SensorType(kind)
	a.Status = models.AlertStatus(status)
	return a, nil
}
