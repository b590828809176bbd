package types

import "time"

// OrganizationStatus is the lifecycle state of an organization.
type OrganizationStatus string

const (
	OrganizationActive    OrganizationStatus = "active"
	OrganizationSuspended OrganizationStatus = "suspended"
)

// Organization is a tenant on the platform. Every non-super_admin user,
// alert, event, and audit record is scoped to one.
type Organization struct {
	// ID is the unique identifier of the organization.
	ID int `json:"id" db:"id"`

	// Name is the unique display name of the organization.
	Name string `json:"name" db:"name"`

	// Domain is the organization's primary web domain.
	Domain string `json:"domain" db:"domain"`

	// Status indicates whether the organization is active or suspended.
	Status OrganizationStatus `json:"status" db:"status"`

	// Metadata holds free-form key/value annotations set by operators.
	Metadata map[string]string `json:"metadata,omitempty" db:"metadata"`

	// CreatedAt is the timestamp when the organization was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
