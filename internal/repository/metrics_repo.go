package repository

import (
	"context"
	"errors"

	"github.com/diet-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricsRepository handles metrics and meal log data access
type MetricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository creates a new MetricsRepository
func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// FindMetricsBySession retrieves the metrics row of a session
func (r *MetricsRepository) FindMetricsBySession(ctx context.Context, sessionID string) (*models.Metrics, error) {
	var metrics models.Metrics
	result := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&metrics)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMetricsNotFound
		}
		return nil, result.Error
	}
	return &metrics, nil
}

// UpdateMetrics locks the session's metrics row, applies updateFn, saves
// the counters and inserts meal, all in one transaction. Concurrent calls
// for the same session queue on the row lock.
func (r *MetricsRepository) UpdateMetrics(ctx context.Context, sessionID string, meal *models.Meal, updateFn func(*models.Metrics) error) (*models.Metrics, error) {
	var metrics models.Metrics
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).
			First(&metrics).Error; err != nil {
			return err
		}

		if err := updateFn(&metrics); err != nil {
			return err
		}

		if err := tx.Model(&models.Metrics{}).Where("id = ?", metrics.ID).Updates(map[string]interface{}{
			"meal_amount":      metrics.MealAmount,
			"diet_amount":      metrics.DietAmount,
			"not_diet_amount":  metrics.NotDietAmount,
			"diet_sequence":    metrics.DietSequence,
			"longest_sequence": metrics.LongestSequence,
		}).Error; err != nil {
			return err
		}

		if meal != nil {
			return tx.Create(meal).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetricsNotFound
		}
		return nil, err
	}
	return &metrics, nil
}
