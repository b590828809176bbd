package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/watchdesk/console/types"
)

// OrganizationRepository handles persistence for organizations.
type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) List(ctx context.Context) ([]types.Organization, error) {
	const query = `
		SELECT id, name, domain, status, metadata, created_at, updated_at
		FROM organizations
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []types.Organization
	for rows.Next() {
		var org types.Organization
		var metadataJSON []byte
		if err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Domain,
			&org.Status,
			&metadataJSON,
			&org.CreatedAt,
			&org.UpdatedAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(metadataJSON, &org.Metadata)
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *OrganizationRepository) Get(ctx context.Context, id int) (types.Organization, error) {
	const query = `
		SELECT id, name, domain, status, metadata, created_at, updated_at
		FROM organizations
		WHERE id = $1`
	var org types.Organization
	var metadataJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Domain,
		&org.Status,
		&metadataJSON,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Organization{}, ErrNotFound
		}
		return types.Organization{}, err
	}
	_ = json.Unmarshal(metadataJSON, &org.Metadata)
	return org, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org types.Organization) (types.Organization, error) {
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.Status == "" {
		org.Status = types.OrganizationActive
	}

	metadataJSON, err := json.Marshal(org.Metadata)
	if err != nil {
		return types.Organization{}, err
	}

	const query = `
		INSERT INTO organizations (name, domain, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		org.Name,
		org.Domain,
		org.Status,
		metadataJSON,
		org.CreatedAt,
		org.UpdatedAt,
	).Scan(&org.ID); err != nil {
		return types.Organization{}, translateUniqueViolation(err)
	}
	return org, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org types.Organization) (types.Organization, error) {
	org.UpdatedAt = time.Now()

	metadataJSON, err := json.Marshal(org.Metadata)
	if err != nil {
		return types.Organization{}, err
	}

	const query = `
		UPDATE organizations
		SET name = $1,
			domain = $2,
			status = $3,
			metadata = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		org.Name,
		org.Domain,
		org.Status,
		metadataJSON,
		org.UpdatedAt,
		org.ID,
	)
	if err != nil {
		return types.Organization{}, translateUniqueViolation(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Organization{}, err
	}
	if affected == 0 {
		return types.Organization{}, ErrNotFound
	}
	return org, nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM organizations WHERE id = $1`
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
