package types

import "time"

// Event is a system or security event observed on the platform, ingested
// from agents via the message bus or recorded directly by the API.
type Event struct {
	// ID is the unique identifier of the event.
	ID int `json:"id" db:"id"`

	// EventType classifies the event, e.g. "login_failure" or "port_scan".
	EventType string `json:"eventType" db:"event_type"`

	// Source names the producing system or sensor.
	Source string `json:"source" db:"source"`

	// EventTimestamp is when the event occurred at the source.
	EventTimestamp time.Time `json:"eventTimestamp" db:"event_timestamp"`

	// OrganizationID scopes the event to a tenant. Nil for platform events.
	OrganizationID *int `json:"organizationId,omitempty" db:"organization_id"`

	// Data is the structured payload attached by the source. Common keys
	// are userId, ipAddress, userAgent, and success; producers may attach
	// anything JSON-serializable.
	Data map[string]any `json:"data" db:"data"`

	// CreatedAt is when the console persisted the event.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
