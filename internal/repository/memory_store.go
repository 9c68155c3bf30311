package repository

import (
	"context"
	"sync"
	"time"

	"github.com/diet-tracker/internal/models"
)

// MemoryStore is an in-process store implementing the same contracts as
// the gorm repositories. Metrics updates hold a per-session lock, so
// different sessions never wait on each other.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User // session id -> user
	emails   map[string]string       // email -> session id
	metrics  map[string]*models.Metrics
	meals    map[string][]models.Meal
	sessions map[string]*sync.Mutex
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		metrics:  make(map[string]*models.Metrics),
		meals:    make(map[string][]models.Meal),
		sessions: make(map[string]*sync.Mutex),
	}
}

// CreateAccount stores the user and its metrics row together
func (s *MemoryStore) CreateAccount(_ context.Context, user *models.User, metrics *models.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[user.Email]; ok {
		return ErrDuplicateEmail
	}
	if _, ok := s.users[user.SessionID]; ok {
		return ErrDuplicateSession
	}
	if _, ok := s.metrics[metrics.SessionID]; ok {
		return ErrDuplicateSession
	}

	now := time.Now()
	u := *user
	u.CreatedAt, u.UpdatedAt = now, now
	m := *metrics

	s.users[u.SessionID] = &u
	s.emails[u.Email] = u.SessionID
	s.metrics[m.SessionID] = &m
	s.sessions[m.SessionID] = &sync.Mutex{}

	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// FindUserByEmail retrieves a user by email
func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.emails[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *s.users[sessionID]
	return &u, nil
}

// FindUserBySession retrieves a user by session id
func (s *MemoryStore) FindUserBySession(_ context.Context, sessionID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[sessionID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// EmailExists checks if an email is already registered
func (s *MemoryStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.emails[email]
	return ok, nil
}

// UpdateUser applies the supplied credential fields atomically
func (s *MemoryStore) UpdateUser(_ context.Context, sessionID string, changes models.CredentialChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[sessionID]
	if !ok {
		return ErrUserNotFound
	}
	if changes.Empty() {
		return nil
	}
	if changes.Email != nil && *changes.Email != user.Email {
		if _, taken := s.emails[*changes.Email]; taken {
			return ErrDuplicateEmail
		}
	}

	if changes.Username != nil {
		user.Username = *changes.Username
	}
	if changes.Email != nil {
		delete(s.emails, user.Email)
		user.Email = *changes.Email
		s.emails[user.Email] = sessionID
	}
	if changes.PasswordHash != nil {
		user.PasswordHash = *changes.PasswordHash
	}
	user.UpdatedAt = time.Now()
	return nil
}

// FindMetricsBySession retrieves the metrics row of a session
func (s *MemoryStore) FindMetricsBySession(_ context.Context, sessionID string) (*models.Metrics, error) {
	lock := s.sessionLock(sessionID)
	if lock == nil {
		return nil, ErrMetricsNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	m := *s.metrics[sessionID]
	return &m, nil
}

// UpdateMetrics applies updateFn to a copy of the session's metrics under
// the session lock and commits it, together with meal, only on success.
func (s *MemoryStore) UpdateMetrics(_ context.Context, sessionID string, meal *models.Meal, updateFn func(*models.Metrics) error) (*models.Metrics, error) {
	lock := s.sessionLock(sessionID)
	if lock == nil {
		return nil, ErrMetricsNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	working := *s.metrics[sessionID]
	s.mu.RUnlock()

	if err := updateFn(&working); err != nil {
		return nil, err
	}

	s.mu.Lock()
	committed := working
	s.metrics[sessionID] = &committed
	if meal != nil {
		entry := *meal
		entry.CreatedAt = time.Now()
		s.meals[sessionID] = append(s.meals[sessionID], entry)
	}
	s.mu.Unlock()

	return &working, nil
}

// MealCount returns the number of meals logged for a session
func (s *MemoryStore) MealCount(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meals[sessionID])
}

func (s *MemoryStore) sessionLock(sessionID string) *sync.Mutex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}
