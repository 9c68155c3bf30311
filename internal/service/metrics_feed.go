package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/diet-tracker/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrFeedUnavailable = errors.New("metrics feed unavailable")

const feedBufferSize = 16

// MetricsFeed fans out committed snapshots to live subscribers
type MetricsFeed interface {
	Publish(ctx context.Context, sessionID string, snapshot models.MetricsSnapshot) error
	Subscribe(ctx context.Context, sessionID string) (<-chan models.MetricsSnapshot, func(), error)
}

func feedChannel(sessionID string) string {
	return "metrics:" + sessionID
}

// RedisMetricsFeed publishes snapshots on a per-session redis channel so
// that every server instance can serve the stream
type RedisMetricsFeed struct {
	redis *redis.Client
}

// NewRedisMetricsFeed creates a new RedisMetricsFeed
func NewRedisMetricsFeed(client *redis.Client) *RedisMetricsFeed {
	return &RedisMetricsFeed{redis: client}
}

// Publish sends the snapshot to the session channel
func (f *RedisMetricsFeed) Publish(ctx context.Context, sessionID string, snapshot models.MetricsSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return f.redis.Publish(ctx, feedChannel(sessionID), payload).Err()
}

// Subscribe listens on the session channel until the returned cancel
// function is called or ctx ends
func (f *RedisMetricsFeed) Subscribe(ctx context.Context, sessionID string) (<-chan models.MetricsSnapshot, func(), error) {
	pubsub := f.redis.Subscribe(ctx, feedChannel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan models.MetricsSnapshot, feedBufferSize)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var snapshot models.MetricsSnapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
				log.Printf("[MetricsFeed] bad payload on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { pubsub.Close() })
	}
	return out, cancel, nil
}

// LocalMetricsFeed is an in-process feed for single-instance deployments
type LocalMetricsFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan models.MetricsSnapshot]struct{}
}

// NewLocalMetricsFeed creates a new LocalMetricsFeed
func NewLocalMetricsFeed() *LocalMetricsFeed {
	return &LocalMetricsFeed{
		subs: make(map[string]map[chan models.MetricsSnapshot]struct{}),
	}
}

// Publish delivers the snapshot to every subscriber of the session.
// A subscriber with a full buffer misses the update.
func (f *LocalMetricsFeed) Publish(_ context.Context, sessionID string, snapshot models.MetricsSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[sessionID] {
		select {
		case ch <- snapshot:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for the session
func (f *LocalMetricsFeed) Subscribe(_ context.Context, sessionID string) (<-chan models.MetricsSnapshot, func(), error) {
	ch := make(chan models.MetricsSnapshot, feedBufferSize)

	f.mu.Lock()
	if f.subs[sessionID] == nil {
		f.subs[sessionID] = make(map[chan models.MetricsSnapshot]struct{})
	}
	f.subs[sessionID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[sessionID], ch)
			if len(f.subs[sessionID]) == 0 {
				delete(f.subs, sessionID)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
