package models

import (
	"time"
)

// Meal is an append-only log entry. Its effect on Metrics is applied in
// the same transaction that inserts it.
type Meal struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID   string    `gorm:"index;size:36;not null" json:"-"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	IsDiet      bool      `gorm:"not null" json:"is_diet"`
	EatenAt     time.Time `gorm:"not null" json:"eaten_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Meal model
func (Meal) TableName() string {
	return "meals"
}
