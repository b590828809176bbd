package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/watchdesk/console/types"
)

const alertColumns = `id, title, description, severity, status, organization_id, created_by, created_at, updated_at`

// AlertRepository handles persistence for security alerts.
type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func scanAlert(row interface{ Scan(...any) error }) (types.Alert, error) {
	var alert types.Alert
	err := row.Scan(
		&alert.ID,
		&alert.Title,
		&alert.Description,
		&alert.Severity,
		&alert.Status,
		&alert.OrganizationID,
		&alert.CreatedBy,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Alert{}, ErrNotFound
		}
		return types.Alert{}, err
	}
	return alert, nil
}

// List returns alerts newest-first, optionally restricted to one organization.
func (r *AlertRepository) List(ctx context.Context, organizationID *int) ([]types.Alert, error) {
	const query = `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE $1::int IS NULL OR organization_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r *AlertRepository) Get(ctx context.Context, id int) (types.Alert, error) {
	const query = `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE id = $1`
	return scanAlert(r.db.QueryRowContext(ctx, query, id))
}

func (r *AlertRepository) Create(ctx context.Context, alert types.Alert) (types.Alert, error) {
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now

	const query = `
		INSERT INTO alerts (title, description, severity, status, organization_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		alert.Title,
		alert.Description,
		alert.Severity,
		alert.Status,
		alert.OrganizationID,
		alert.CreatedBy,
		alert.CreatedAt,
		alert.UpdatedAt,
	).Scan(&alert.ID); err != nil {
		return types.Alert{}, err
	}
	return alert, nil
}

func (r *AlertRepository) Update(ctx context.Context, alert types.Alert) (types.Alert, error) {
	alert.UpdatedAt = time.Now()

	const query = `
		UPDATE alerts
		SET title = $1,
			description = $2,
			severity = $3,
			status = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		alert.Title,
		alert.Description,
		alert.Severity,
		alert.Status,
		alert.UpdatedAt,
		alert.ID,
	)
	if err != nil {
		return types.Alert{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Alert{}, err
	}
	if affected == 0 {
		return types.Alert{}, ErrNotFound
	}
	return alert, nil
}

func (r *AlertRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM alerts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
