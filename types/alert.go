package types

import "time"

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// ValidSeverity reports whether the severity is one of the known grades.
func ValidSeverity(s AlertSeverity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AlertStatus is the triage state of an alert.
type AlertStatus string

const (
	AlertNew           AlertStatus = "new"
	AlertAcknowledged  AlertStatus = "acknowledged"
	AlertInvestigating AlertStatus = "investigating"
	AlertResolved      AlertStatus = "resolved"
	AlertDismissed     AlertStatus = "dismissed"
)

// ValidAlertStatus reports whether the status is one of the known states.
func ValidAlertStatus(s AlertStatus) bool {
	switch s {
	case AlertNew, AlertAcknowledged, AlertInvestigating, AlertResolved, AlertDismissed:
		return true
	}
	return false
}

// Alert is a security alert raised for an organization.
type Alert struct {
	// ID is the unique identifier of the alert.
	ID int `json:"id" db:"id"`

	// Title is a short human-readable summary.
	Title string `json:"title" db:"title"`

	// Description elaborates on the alert.
	Description string `json:"description" db:"description"`

	// Severity grades the urgency of the alert.
	Severity AlertSeverity `json:"severity" db:"severity"`

	// Status is the current triage state.
	Status AlertStatus `json:"status" db:"status"`

	// OrganizationID scopes the alert to a tenant.
	OrganizationID *int `json:"organizationId,omitempty" db:"organization_id"`

	// CreatedBy is the ID of the user who raised the alert.
	CreatedBy int `json:"createdBy" db:"created_by"`

	// CreatedAt is the timestamp when the alert was raised.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent status change or edit.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
