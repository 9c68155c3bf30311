package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/diet-tracker/internal/models"
	"github.com/diet-tracker/internal/repository"
	"github.com/diet-tracker/pkg/keygen"
)

// MetricsService maintains the per-session meal counters and streaks
type MetricsService struct {
	store MetricsStore
	feed  MetricsFeed
	ids   keygen.Generator
	now   func() time.Time
}

// NewMetricsService creates a new MetricsService. feed may be nil.
func NewMetricsService(store MetricsStore, feed MetricsFeed) *MetricsService {
	return &MetricsService{
		store: store,
		feed:  feed,
		ids:   keygen.UUIDGenerator{},
		now:   time.Now,
	}
}

// MealInput describes one logged meal
type MealInput struct {
	Name        string
	Description string
	EatenAt     time.Time
	IsDiet      bool
}

// ApplyMeal folds one meal into the counters. A streak only replaces the
// longest streak when strictly greater.
func ApplyMeal(m *models.Metrics, isDiet bool) {
	m.MealAmount++
	if isDiet {
		m.DietAmount++
		m.DietSequence++
		if m.DietSequence > m.LongestSequence {
			m.LongestSequence = m.DietSequence
		}
		return
	}
	m.NotDietAmount++
	m.DietSequence = 0
}

// RecordMeal logs a meal for the session and returns the updated counters
func (s *MetricsService) RecordMeal(ctx context.Context, sessionID string, in MealInput) (*models.MetricsSnapshot, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}

	eatenAt := in.EatenAt
	if eatenAt.IsZero() {
		eatenAt = s.now()
	}
	meal := &models.Meal{
		ID:          s.ids.NewID(),
		SessionID:   sessionID,
		Name:        in.Name,
		Description: in.Description,
		IsDiet:      in.IsDiet,
		EatenAt:     eatenAt,
	}

	metrics, err := s.store.UpdateMetrics(ctx, sessionID, meal, func(m *models.Metrics) error {
		ApplyMeal(m, in.IsDiet)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrMetricsNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	snapshot := metrics.Snapshot()

	// Counters are already committed; publish errors are only logged.
	if s.feed != nil {
		if err := s.feed.Publish(ctx, sessionID, snapshot); err != nil {
			log.Printf("[MetricsService] publish failed session=%s: %v", keygen.Mask(sessionID), err)
		}
	}

	return &snapshot, nil
}

// GetMetrics returns the stored counters of the session
func (s *MetricsService) GetMetrics(ctx context.Context, sessionID string) (*models.MetricsSnapshot, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}

	metrics, err := s.store.FindMetricsBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrMetricsNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	snapshot := metrics.Snapshot()
	return &snapshot, nil
}

// Subscribe streams snapshots published for the session after each meal
func (s *MetricsService) Subscribe(ctx context.Context, sessionID string) (<-chan models.MetricsSnapshot, func(), error) {
	if s.feed == nil {
		return nil, nil, ErrFeedUnavailable
	}
	return s.feed.Subscribe(ctx, sessionID)
}
