package event_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type MockCache struct{ mock.Mock }

func (m *MockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	return m.Called(ctx, key, val, ttl).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func TestService_Views_CacheErrorsFallThrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, _, _, _ := seed(t, f)
	key := "views:" + domain.EventURI(a)

	stats := newFakeStats()
	stats.set(domain.EventURI(a), 5)

	cache := new(MockCache)
	cache.On("Get", mock.Anything, key, mock.Anything).Return(false, errors.New("redis down"))
	cache.On("Set", mock.Anything, key, int64(5), time.Minute).Return(errors.New("redis down"))

	svc := event.New(event.Deps{
		Repo: f.store, Categories: f.store, Users: f.store, Locations: f.store,
		Stats: stats, Cache: cache, Clock: f.clock, ViewsTTL: time.Minute,
	})

	v, err := svc.GetPublicEvent(ctx, a, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Views)
	cache.AssertExpectations(t)
}

func TestService_Views_CacheHitSkipsStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, _, _, _ := seed(t, f)

	stats := newFakeStats()
	stats.fail(errors.New("must not be called"))

	cache := new(MockCache)
	cache.On("Get", mock.Anything, "views:"+domain.EventURI(a), mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(2).(*int64) = 11
		}).
		Return(true, nil)

	svc := event.New(event.Deps{
		Repo: f.store, Categories: f.store, Users: f.store, Locations: f.store,
		Stats: stats, Cache: cache, Clock: f.clock,
	})

	v, err := svc.GetPublicEvent(ctx, a, "")
	require.NoError(t, err)
	assert.Equal(t, int64(11), v.Views)

	stats.mu.Lock()
	defer stats.mu.Unlock()
	assert.Zero(t, stats.calls)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
