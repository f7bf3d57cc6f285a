package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a row of the users table.
type UserDB struct {
	ID         uuid.UUID `json:"id" db:"id"`                   // Primary key
	ExternalID string    `json:"external_id" db:"external_id"` // Identity gateway user id, unique
	Email      string    `json:"email" db:"email"`             // Primary email address, unique
	Name       *string   `json:"name,omitempty" db:"name"`     // Display name
	AvatarURL  *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}

// DisplayName returns the name shown in the navigation bar,
// falling back to the email address when the user has no name.
func (u *UserDB) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
