package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type mapCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{store: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *mapCache) Set(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = b
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.store, k)
	}
	return nil
}

func eventIDs(vs []event.EventView) []int64 {
	out := make([]int64, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Event.ID)
	}
	return out
}

// seed creates three published events (dates +1d, +2d, +3d) and one pending.
func seed(t *testing.T, f *fixture) (a, b, c, pending int64) {
	t.Helper()
	ctx := context.Background()
	mk := func(days int, title string, limit int, paid bool) int64 {
		d := draft(f.clock.t.Add(time.Duration(days) * 24 * time.Hour))
		d.Title = title
		d.ParticipantLimit = ptr(limit)
		d.RequestModeration = ptr(false)
		d.Paid = ptr(paid)
		v, err := f.svc.CreateEvent(ctx, ownerID, d)
		require.NoError(t, err)
		return v.Event.ID
	}
	a = mk(1, "Jazz in the park", 1, false)
	b = mk(2, "Chess club", 0, true)
	c = mk(3, "Late JAZZ session", 5, false)
	pending = mk(4, "Jazz rehearsal", 0, false)
	for _, id := range []int64{a, b, c} {
		_, err := f.svc.TransitionEvent(ctx, id, domain.ActionPublishEvent)
		require.NoError(t, err)
	}
	return a, b, c, pending
}

func TestService_ListPublicEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("published_only_date_order_and_hit", func(t *testing.T) {
		f := newFixture(t)
		a, b, c, _ := seed(t, f)

		out, err := f.svc.ListPublicEvents(ctx, event.ListFilter{}, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, []int64{a, b, c}, eventIDs(out))

		h := f.stats.waitHit(t)
		assert.Equal(t, "/events", h.URI)
		assert.Equal(t, "10.0.0.1", h.IP)
		assert.Equal(t, "ewm-main-service", h.App)
	})

	t.Run("text_and_paid_filters", func(t *testing.T) {
		f := newFixture(t)
		a, _, c, _ := seed(t, f)

		out, err := f.svc.ListPublicEvents(ctx, event.ListFilter{Text: "jazz", Paid: ptr(false)}, "")
		require.NoError(t, err)
		assert.Equal(t, []int64{a, c}, eventIDs(out))
	})

	t.Run("only_available", func(t *testing.T) {
		f := newFixture(t)
		a, b, c, _ := seed(t, f)
		_, err := f.svc.CreateParticipationRequest(ctx, otherUser, a)
		require.NoError(t, err)

		out, err := f.svc.ListPublicEvents(ctx, event.ListFilter{OnlyAvailable: true}, "")
		require.NoError(t, err)
		assert.Equal(t, []int64{b, c}, eventIDs(out))

		all, err := f.svc.ListPublicEvents(ctx, event.ListFilter{}, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, 1, all[0].ConfirmedRequests)
	})

	t.Run("sort_by_views_with_paging", func(t *testing.T) {
		f := newFixture(t)
		a, b, c, _ := seed(t, f)
		f.stats.set(domain.EventURI(a), 5)
		f.stats.set(domain.EventURI(b), 50)
		f.stats.set(domain.EventURI(c), 20)

		out, err := f.svc.ListPublicEvents(ctx, event.ListFilter{Sort: event.SortViews}, "")
		require.NoError(t, err)
		assert.Equal(t, []int64{b, c, a}, eventIDs(out))
		assert.Equal(t, int64(50), out[0].Views)

		out, err = f.svc.ListPublicEvents(ctx, event.ListFilter{Sort: event.SortViews, From: 1, Size: 1}, "")
		require.NoError(t, err)
		assert.Equal(t, []int64{c}, eventIDs(out))
	})

	t.Run("stats_failure_degrades_to_zero", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f)
		f.stats.fail(errors.New("stats down"))

		out, err := f.svc.ListPublicEvents(ctx, event.ListFilter{Sort: event.SortViews}, "")
		require.NoError(t, err)
		require.Len(t, out, 3)
		for _, v := range out {
			assert.Zero(t, v.Views)
		}
	})

	t.Run("bad_range", func(t *testing.T) {
		f := newFixture(t)
		start := f.clock.t.Add(48 * time.Hour)
		end := f.clock.t.Add(24 * time.Hour)
		_, err := f.svc.ListPublicEvents(ctx, event.ListFilter{RangeStart: &start, RangeEnd: &end}, "")
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("range_start_defaults_to_now", func(t *testing.T) {
		f := newFixture(t)
		a, b, c, _ := seed(t, f)
		f.clock.t = f.clock.t.Add(36 * time.Hour)

		out, err := f.svc.ListPublicEvents(ctx, event.ListFilter{}, "")
		require.NoError(t, err)
		assert.NotContains(t, eventIDs(out), a)
		assert.Equal(t, []int64{b, c}, eventIDs(out))
	})
}

func TestService_ListEvents_Admin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c, pending := seed(t, f)

	out, err := f.svc.ListEvents(ctx, event.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b, c, pending}, eventIDs(out))

	out, err = f.svc.ListEvents(ctx, event.ListFilter{
		States:     []domain.EventState{domain.StatePending},
		Initiators: []int64{ownerID},
		Categories: []int64{categoryID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{pending}, eventIDs(out))

	out, err = f.svc.ListEvents(ctx, event.ListFilter{Initiators: []int64{otherUser}})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.svc.ListEvents(ctx, event.ListFilter{From: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{b, c}, eventIDs(out))

	_, err = f.svc.ListEvents(ctx, event.ListFilter{From: -1})
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestService_GetPublicEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, _, _, pending := seed(t, f)
	f.stats.set(domain.EventURI(a), 7)

	v, err := f.svc.GetPublicEvent(ctx, a, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Views)
	h := f.stats.waitHit(t)
	assert.Equal(t, domain.EventURI(a), h.URI)

	_, err = f.svc.GetPublicEvent(ctx, pending, "10.0.0.2")
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestService_ViewsAreCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, _, _, _ := seed(t, f)

	stats := newFakeStats()
	stats.set(domain.EventURI(a), 3)
	svc := event.New(event.Deps{
		Repo: f.store, Categories: f.store, Users: f.store, Locations: f.store,
		Stats: stats, Cache: newMapCache(), Clock: f.clock,
	})

	v, err := svc.GetPublicEvent(ctx, a, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Views)
	stats.set(domain.EventURI(a), 4)

	v, err = svc.GetPublicEvent(ctx, a, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Views)

	stats.mu.Lock()
	calls := stats.calls
	stats.mu.Unlock()
	assert.Equal(t, 1, calls)
}
