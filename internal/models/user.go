package models

import (
	"time"
)

// User represents a registered account bound to exactly one session id
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID    string    `gorm:"uniqueIndex;size:36;not null" json:"-"`
	Username     string    `gorm:"size:50;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// CredentialChanges holds the optional fields of a credential update.
// A nil field is left untouched.
type CredentialChanges struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether no field is set
func (c CredentialChanges) Empty() bool {
	return c.Username == nil && c.Email == nil && c.PasswordHash == nil
}

// Columns returns the column/value pairs to write, stamped with updatedAt
func (c CredentialChanges) Columns(updatedAt time.Time) map[string]interface{} {
	cols := make(map[string]interface{}, 4)
	if c.Username != nil {
		cols["username"] = *c.Username
	}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.PasswordHash != nil {
		cols["password_hash"] = *c.PasswordHash
	}
	if len(cols) > 0 {
		cols["updated_at"] = updatedAt
	}
	return cols
}
