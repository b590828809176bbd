package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/watchdesk/console/types"
)

// EventRepository handles persistence for system events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events newest-first, optionally restricted to one organization.
func (r *EventRepository) List(ctx context.Context, organizationID *int) ([]types.Event, error) {
	const query = `
		SELECT id, event_type, source, event_timestamp, organization_id, data, created_at
		FROM events
		WHERE $1::int IS NULL OR organization_id = $1
		ORDER BY event_timestamp DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var event types.Event
		var dataJSON []byte
		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.Source,
			&event.EventTimestamp,
			&event.OrganizationID,
			&dataJSON,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(dataJSON, &event.Data)
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) Get(ctx context.Context, id int) (types.Event, error) {
	const query = `
		SELECT id, event_type, source, event_timestamp, organization_id, data, created_at
		FROM events
		WHERE id = $1`
	var event types.Event
	var dataJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.EventType,
		&event.Source,
		&event.EventTimestamp,
		&event.OrganizationID,
		&dataJSON,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	_ = json.Unmarshal(dataJSON, &event.Data)
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	event.CreatedAt = time.Now()
	if event.EventTimestamp.IsZero() {
		event.EventTimestamp = event.CreatedAt
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return types.Event{}, err
	}

	const query = `
		INSERT INTO events (event_type, source, event_timestamp, organization_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.EventType,
		event.Source,
		event.EventTimestamp,
		event.OrganizationID,
		dataJSON,
		event.CreatedAt,
	).Scan(&event.ID); err != nil {
		return types.Event{}, err
	}
	return event, nil
}
