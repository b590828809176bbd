package types

import "time"

// AuditAction is the verb recorded for an audit entry.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditLogin  AuditAction = "login"
	AuditLogout AuditAction = "logout"
)

// AuditRecord is one immutable entry in the platform activity history.
type AuditRecord struct {
	// ID is the unique identifier of the record.
	ID int `json:"id" db:"id"`

	// UserID identifies who performed the action. Nil for anonymous
	// actions such as failed logins.
	UserID *int `json:"userId,omitempty" db:"user_id"`

	// OrganizationID scopes the record to the actor's organization.
	OrganizationID *int `json:"organizationId,omitempty" db:"organization_id"`

	// Action is the verb performed.
	Action AuditAction `json:"action" db:"action"`

	// Entity names the kind of object acted on, e.g. "user" or "alert".
	Entity string `json:"entity" db:"entity"`

	// EntityID identifies the object acted on, when applicable.
	EntityID *int `json:"entityId,omitempty" db:"entity_id"`

	// Details holds free-form context about the action.
	Details map[string]any `json:"details,omitempty" db:"details"`

	// CreatedAt is when the action happened.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AuditFilter narrows an audit log query. Zero values mean "no filter".
type AuditFilter struct {
	Action    AuditAction
	UserID    int
	StartDate time.Time
	EndDate   time.Time

	// OrganizationID restricts results to one tenant. Applied by the
	// handler for every caller below super_admin.
	OrganizationID *int
}
