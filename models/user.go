package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an authenticated account in the system (actor or admin).
// Clients do not have accounts; they are identified on each order by name
// and email.
type User struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Auth0ID string `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"uniqueIndex;not null" json:"email"`
	Role    string `gorm:"not null;default:'actor'" json:"role"` // "actor" or "admin"

	// Actor profile fields.
	DisplayName      string `json:"display_name"`
	RevisionsAllowed int    `gorm:"not null;default:2" json:"revisions_allowed"` // snapshotted onto each new order

	// Payout details for direct bank payments.
	BankName          string `json:"bank_name"`
	BankAccountName   string `json:"bank_account_name"`
	BankAccountNumber string `json:"bank_account_number"`

	// Direct-payment flags: the request is a one-way flag set by the actor,
	// enablement is set only by an admin.
	DirectPaymentRequested bool `gorm:"not null;default:false" json:"direct_payment_requested"`
	DirectPaymentEnabled   bool `gorm:"not null;default:false" json:"direct_payment_enabled"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
