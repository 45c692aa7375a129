package event_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/infrastructure/memory"
)

// --- Fakes & Helpers ---

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type fakeStats struct {
	mu    sync.Mutex
	views map[string]int64
	err   error
	calls int
	hits  chan domain.Hit
}

func newFakeStats() *fakeStats {
	return &fakeStats{views: map[string]int64{}, hits: make(chan domain.Hit, 16)}
}

func (f *fakeStats) RecordHit(_ context.Context, h domain.Hit) error {
	select {
	case f.hits <- h:
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeStats) ViewCounts(_ context.Context, q domain.ViewQuery) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if !q.Unique || !q.Start.Equal(domain.StatsWindowStart) || !q.End.Equal(domain.StatsWindowEnd) {
		return nil, errors.New("unexpected view query")
	}
	out := map[string]int64{}
	for _, u := range q.URIs {
		if n, ok := f.views[u]; ok {
			out[u] = n
		}
	}
	return out, nil
}

func (f *fakeStats) set(uri string, n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views[uri] = n
}

func (f *fakeStats) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeStats) waitHit(t *testing.T) domain.Hit {
	t.Helper()
	select {
	case h := <-f.hits:
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("no hit recorded")
		return domain.Hit{}
	}
}

const (
	ownerID    = int64(1)
	otherUser  = int64(2)
	categoryID = int64(10)
)

type fixture struct {
	svc   *event.Service
	store *memory.Store
	stats *fakeStats
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	store.PutCategory(domain.Category{ID: categoryID, Name: "Music"})
	for id := int64(1); id <= 60; id++ {
		store.PutUser(domain.User{ID: id, Name: "user", Email: "u@example.com"})
	}
	stats := newFakeStats()
	clock := &fakeClock{t: time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)}
	svc := event.New(event.Deps{
		Repo:       store,
		Categories: store,
		Users:      store,
		Locations:  store,
		Stats:      stats,
		Clock:      clock,
	})
	return &fixture{svc: svc, store: store, stats: stats, clock: clock}
}

func ptr[T any](v T) *T { return &v }

func draft(eventDate time.Time) domain.Draft {
	return domain.Draft{
		Annotation:  strings.Repeat("a", 25),
		Description: strings.Repeat("d", 40),
		Title:       "Board games night",
		CategoryID:  categoryID,
		Location:    domain.Location{Lat: 55.75, Lon: 37.61},
		EventDate:   eventDate,
	}
}

// publishedEvent creates and publishes an event owned by ownerID.
func (f *fixture) publishedEvent(t *testing.T, limit int, moderation bool) int64 {
	t.Helper()
	ctx := context.Background()
	d := draft(f.clock.t.Add(48 * time.Hour))
	d.ParticipantLimit = ptr(limit)
	d.RequestModeration = ptr(moderation)
	v, err := f.svc.CreateEvent(ctx, ownerID, d)
	require.NoError(t, err)
	_, err = f.svc.TransitionEvent(ctx, v.Event.ID, domain.ActionPublishEvent)
	require.NoError(t, err)
	return v.Event.ID
}

func routingKeys(msgs []domain.OutboxMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.RoutingKey)
	}
	return out
}
