package types

import "time"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's login email address, unique across the platform.
	Email string `json:"email" db:"email"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// Role indicates the user's authorization level within the platform.
	Role Role `json:"role" db:"role"`

	// IsActive marks whether the account may log in. Deactivated accounts
	// keep their history but are rejected at authentication.
	IsActive bool `json:"isActive" db:"is_active"`

	// OrganizationID scopes the user to an organization. Nil for
	// super_admin accounts, which are platform-wide.
	OrganizationID *int `json:"organizationId,omitempty" db:"organization_id"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// LastLoginAt is the timestamp of the most recent successful login.
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Executive is a user joined with its organization's name, as rendered on
// the executive management screens.
type Executive struct {
	User

	// OrganizationName is the display name of the owning organization.
	OrganizationName string `json:"organizationName,omitempty" db:"organization_name"`
}
