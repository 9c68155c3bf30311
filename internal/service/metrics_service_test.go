package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/diet-tracker/internal/models"
	"github.com/diet-tracker/pkg/keygen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, svc *MetricsService, sessionID string, isDiet bool) models.MetricsSnapshot {
	t.Helper()
	snap, err := svc.RecordMeal(context.Background(), sessionID, MealInput{Name: "meal", IsDiet: isDiet})
	require.NoError(t, err)
	return *snap
}

func TestApplyMeal(t *testing.T) {
	m := &models.Metrics{}

	ApplyMeal(m, true)
	ApplyMeal(m, true)
	assert.Equal(t, models.MetricsSnapshot{MealAmount: 2, DietAmount: 2, DietSequence: 2, LongestSequence: 2}, m.Snapshot())

	ApplyMeal(m, false)
	assert.Equal(t, models.MetricsSnapshot{MealAmount: 3, DietAmount: 2, NotDietAmount: 1, DietSequence: 0, LongestSequence: 2}, m.Snapshot())

	ApplyMeal(m, true)
	assert.Equal(t, 1, m.DietSequence)
	assert.Equal(t, 2, m.LongestSequence)
}

func TestRecordMealStreakScenario(t *testing.T) {
	auth, metrics, _ := newTestServices(t)
	grant := signup(t, auth, "a@x.com", "pw1", "")

	for i := 0; i < 3; i++ {
		record(t, metrics, grant.SessionID, true)
	}
	got := record(t, metrics, grant.SessionID, false)

	assert.Equal(t, models.MetricsSnapshot{
		MealAmount:      4,
		DietAmount:      3,
		NotDietAmount:   1,
		DietSequence:    0,
		LongestSequence: 3,
	}, got)
}

func TestRecordMealInvariantsOverRandomSequences(t *testing.T) {
	auth, metrics, _ := newTestServices(t)
	grant := signup(t, auth, "a@x.com", "pw1", "")
	rng := rand.New(rand.NewSource(7))

	prevLongest, run := 0, 0
	for i := 0; i < 200; i++ {
		isDiet := rng.Intn(3) != 0
		snap := record(t, metrics, grant.SessionID, isDiet)

		if isDiet {
			run++
		} else {
			run = 0
		}

		assert.Equal(t, snap.MealAmount, snap.DietAmount+snap.NotDietAmount)
		assert.Equal(t, run, snap.DietSequence)
		assert.GreaterOrEqual(t, snap.LongestSequence, snap.DietSequence)
		assert.GreaterOrEqual(t, snap.LongestSequence, prevLongest)
		prevLongest = snap.LongestSequence
	}
}

func TestRecordMealLongestAfterRunOfK(t *testing.T) {
	for _, k := range []int{1, 2, 5, 10} {
		auth, metrics, _ := newTestServices(t)
		grant := signup(t, auth, "a@x.com", "pw1", "")

		for i := 0; i < k; i++ {
			record(t, metrics, grant.SessionID, true)
		}
		snap := record(t, metrics, grant.SessionID, false)

		assert.Equal(t, 0, snap.DietSequence)
		assert.GreaterOrEqual(t, snap.LongestSequence, k)
	}
}

func TestRecordMealStoresMealLog(t *testing.T) {
	auth, metrics, store := newTestServices(t)
	grant := signup(t, auth, "a@x.com", "pw1", "")

	metrics.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	record(t, metrics, grant.SessionID, true)
	record(t, metrics, grant.SessionID, false)

	assert.Equal(t, 2, store.MealCount(grant.SessionID))
}

func TestRecordMealUnknownSession(t *testing.T) {
	_, metrics, _ := newTestServices(t)
	ctx := context.Background()

	_, err := metrics.RecordMeal(ctx, keygen.UUIDGenerator{}.NewID(), MealInput{IsDiet: true})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = metrics.RecordMeal(ctx, "", MealInput{IsDiet: true})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetMetricsIsIdempotent(t *testing.T) {
	auth, metrics, _ := newTestServices(t)
	ctx := context.Background()
	grant := signup(t, auth, "a@x.com", "pw1", "")
	record(t, metrics, grant.SessionID, true)

	first, err := metrics.GetMetrics(ctx, grant.SessionID)
	require.NoError(t, err)
	second, err := metrics.GetMetrics(ctx, grant.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	_, err = metrics.GetMetrics(ctx, keygen.UUIDGenerator{}.NewID())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRecordMealConcurrentSameSession(t *testing.T) {
	auth, metrics, _ := newTestServices(t)
	grant := signup(t, auth, "a@x.com", "pw1", "")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := metrics.RecordMeal(context.Background(), grant.SessionID, MealInput{Name: "salad", IsDiet: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := metrics.GetMetrics(context.Background(), grant.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.MetricsSnapshot{
		MealAmount:      workers,
		DietAmount:      workers,
		DietSequence:    workers,
		LongestSequence: workers,
	}, *snap)
}

func TestRecordMealSessionsAreIndependent(t *testing.T) {
	auth, metrics, _ := newTestServices(t)
	a := signup(t, auth, "a@x.com", "pw1", "")
	b := signup(t, auth, "b@x.com", "pw1", "")

	record(t, metrics, a.SessionID, true)
	record(t, metrics, a.SessionID, true)
	snapB := record(t, metrics, b.SessionID, false)

	assert.Equal(t, models.MetricsSnapshot{MealAmount: 1, NotDietAmount: 1}, snapB)
}

type failingFeed struct{}

func (failingFeed) Publish(context.Context, string, models.MetricsSnapshot) error {
	return assert.AnError
}

func (failingFeed) Subscribe(context.Context, string) (<-chan models.MetricsSnapshot, func(), error) {
	return nil, nil, assert.AnError
}

func TestRecordMealPublishesToFeed(t *testing.T) {
	auth, _, store := newTestServices(t)
	feed := NewLocalMetricsFeed()
	metrics := NewMetricsService(store, feed)
	grant := signup(t, auth, "a@x.com", "pw1", "")

	updates, cancel, err := metrics.Subscribe(context.Background(), grant.SessionID)
	require.NoError(t, err)
	defer cancel()

	want := record(t, metrics, grant.SessionID, true)

	select {
	case got := <-updates:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestRecordMealPublishFailureIsNotFatal(t *testing.T) {
	auth, _, store := newTestServices(t)
	metrics := NewMetricsService(store, failingFeed{})
	grant := signup(t, auth, "a@x.com", "pw1", "")

	snap := record(t, metrics, grant.SessionID, true)
	assert.Equal(t, 1, snap.MealAmount)
}

func TestSubscribeWithoutFeed(t *testing.T) {
	_, metrics, _ := newTestServices(t)

	_, _, err := metrics.Subscribe(context.Background(), keygen.UUIDGenerator{}.NewID())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}
