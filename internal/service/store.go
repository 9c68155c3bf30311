package service

import (
	"context"

	"github.com/diet-tracker/internal/models"
)

// AccountStore is the persistence contract of the session identity manager.
// CreateAccount must insert the user and its metrics row atomically.
type AccountStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserBySession(ctx context.Context, sessionID string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, user *models.User, metrics *models.Metrics) error
	UpdateUser(ctx context.Context, sessionID string, changes models.CredentialChanges) error
}

// MetricsStore is the persistence contract of the meal metrics aggregator.
// UpdateMetrics runs updateFn as a serialized read-modify-write on the
// session's row and stores meal in the same unit of work.
type MetricsStore interface {
	FindMetricsBySession(ctx context.Context, sessionID string) (*models.Metrics, error)
	UpdateMetrics(ctx context.Context, sessionID string, meal *models.Meal, updateFn func(*models.Metrics) error) (*models.Metrics, error)
}
