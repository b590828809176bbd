package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/watchdesk/console/types"
)

// AuditRepository handles persistence for audit records. Records are
// append-only; there is no update or delete.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// List returns audit records newest-first, narrowed by the filter.
func (r *AuditRepository) List(ctx context.Context, filter types.AuditFilter) ([]types.AuditRecord, error) {
	const query = `
		SELECT id, user_id, organization_id, action, entity, entity_id, details, created_at
		FROM audit_logs
		WHERE ($1::text = '' OR action = $1)
			AND ($2::int = 0 OR user_id = $2)
			AND ($3::timestamptz IS NULL OR created_at >= $3)
			AND ($4::timestamptz IS NULL OR created_at <= $4)
			AND ($5::int IS NULL OR organization_id = $5)
		ORDER BY created_at DESC, id DESC`

	var start, end *time.Time
	if !filter.StartDate.IsZero() {
		start = &filter.StartDate
	}
	if !filter.EndDate.IsZero() {
		end = &filter.EndDate
	}

	rows, err := r.db.QueryContext(
		ctx,
		query,
		string(filter.Action),
		filter.UserID,
		start,
		end,
		filter.OrganizationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.AuditRecord
	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListBefore returns records created strictly before the cutoff, oldest
// first. Used by the archive exporter.
func (r *AuditRepository) ListBefore(ctx context.Context, cutoff time.Time) ([]types.AuditRecord, error) {
	const query = `
		SELECT id, user_id, organization_id, action, entity, entity_id, details, created_at
		FROM audit_logs
		WHERE created_at < $1
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.AuditRecord
	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *AuditRepository) Get(ctx context.Context, id int) (types.AuditRecord, error) {
	const query = `
		SELECT id, user_id, organization_id, action, entity, entity_id, details, created_at
		FROM audit_logs
		WHERE id = $1`
	record, err := scanAuditRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AuditRecord{}, ErrNotFound
		}
		return types.AuditRecord{}, err
	}
	return record, nil
}

func (r *AuditRepository) Create(ctx context.Context, record types.AuditRecord) (types.AuditRecord, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	detailsJSON, err := json.Marshal(record.Details)
	if err != nil {
		return types.AuditRecord{}, err
	}

	const query = `
		INSERT INTO audit_logs (user_id, organization_id, action, entity, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.UserID,
		record.OrganizationID,
		record.Action,
		record.Entity,
		record.EntityID,
		detailsJSON,
		record.CreatedAt,
	).Scan(&record.ID); err != nil {
		return types.AuditRecord{}, err
	}
	return record, nil
}

func scanAuditRecord(row interface{ Scan(...any) error }) (types.AuditRecord, error) {
	var record types.AuditRecord
	var detailsJSON []byte
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.OrganizationID,
		&record.Action,
		&record.Entity,
		&record.EntityID,
		&detailsJSON,
		&record.CreatedAt,
	)
	if err != nil {
		return types.AuditRecord{}, err
	}
	_ = json.Unmarshal(detailsJSON, &record.Details)
	return record, nil
}
