package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/diet-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *MemoryStore, sessionID, email string) {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(),
		&models.User{ID: "u-" + sessionID, SessionID: sessionID, Username: "a", Email: email, PasswordHash: "h"},
		&models.Metrics{ID: "m-" + sessionID, SessionID: sessionID},
	))
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedAccount(t, s, "s-1", "a@x.com")

	byEmail, err := s.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "s-1", byEmail.SessionID)

	bySession, err := s.FindUserBySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", bySession.Email)

	m, err := s.FindMetricsBySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.MetricsSnapshot{}, m.Snapshot())

	_, err = s.FindUserByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.FindMetricsBySession(ctx, "s-2")
	assert.ErrorIs(t, err, ErrMetricsNotFound)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "s-1", "a@x.com")

	err := s.CreateAccount(context.Background(),
		&models.User{ID: "u-2", SessionID: "s-2", Email: "a@x.com"},
		&models.Metrics{ID: "m-2", SessionID: "s-2"},
	)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = s.FindMetricsBySession(context.Background(), "s-2")
	assert.ErrorIs(t, err, ErrMetricsNotFound)
}

func TestMemoryStore_DuplicateSession(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "s-1", "a@x.com")

	err := s.CreateAccount(context.Background(),
		&models.User{ID: "u-2", SessionID: "s-1", Email: "b@x.com"},
		&models.Metrics{ID: "m-2", SessionID: "s-1"},
	)
	assert.ErrorIs(t, err, ErrDuplicateSession)

	_, err = s.FindUserByEmail(context.Background(), "b@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_UpdateUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedAccount(t, s, "s-1", "a@x.com")
	seedAccount(t, s, "s-2", "b@x.com")

	taken := "b@x.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, "s-1", models.CredentialChanges{Email: &taken}), ErrDuplicateEmail)

	email := "c@x.com"
	require.NoError(t, s.UpdateUser(ctx, "s-1", models.CredentialChanges{Email: &email}))

	_, err := s.FindUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	u, err := s.FindUserByEmail(ctx, "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "s-1", u.SessionID)

	assert.ErrorIs(t, s.UpdateUser(ctx, "missing", models.CredentialChanges{Email: &email}), ErrUserNotFound)
}

func TestMemoryStore_UpdateMetricsDiscardsOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedAccount(t, s, "s-1", "a@x.com")

	_, err := s.UpdateMetrics(ctx, "s-1", &models.Meal{ID: "x"}, func(m *models.Metrics) error {
		m.MealAmount = 99
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	m, err := s.FindMetricsBySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 0, m.MealAmount)
	assert.Equal(t, 0, s.MealCount("s-1"))
}

func TestMemoryStore_UpdateMetricsSerializesPerSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedAccount(t, s, "s-1", "a@x.com")

	const workers = 64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.UpdateMetrics(ctx, "s-1", &models.Meal{ID: "meal"}, func(m *models.Metrics) error {
				m.MealAmount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	m, err := s.FindMetricsBySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, workers, m.MealAmount)
	assert.Equal(t, workers, s.MealCount("s-1"))
}
