package models

// Metrics holds the running meal counters of one session
type Metrics struct {
	ID              string `gorm:"primaryKey;size:36" json:"-"`
	SessionID       string `gorm:"uniqueIndex;size:36;not null" json:"-"`
	MealAmount      int    `gorm:"not null" json:"meal_amount"`
	DietAmount      int    `gorm:"not null" json:"diet_amount"`
	NotDietAmount   int    `gorm:"not null" json:"not_diet_amount"`
	DietSequence    int    `gorm:"not null" json:"diet_sequence"`
	LongestSequence int    `gorm:"not null" json:"longest_sequence"`
}

// TableName specifies the table name for Metrics model
func (Metrics) TableName() string {
	return "metrics"
}

// MetricsSnapshot is the read-only projection of a Metrics row
type MetricsSnapshot struct {
	MealAmount      int `json:"meal_amount"`
	DietAmount      int `json:"diet_amount"`
	NotDietAmount   int `json:"not_diet_amount"`
	DietSequence    int `json:"diet_sequence"`
	LongestSequence int `json:"longest_sequence"`
}

// Snapshot copies the counters out of the row
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		MealAmount:      m.MealAmount,
		DietAmount:      m.DietAmount,
		NotDietAmount:   m.NotDietAmount,
		DietSequence:    m.DietSequence,
		LongestSequence: m.LongestSequence,
	}
}
