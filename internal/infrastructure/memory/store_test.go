package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

var t0 = time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)

func insertEvent(t *testing.T, s *Store, e domain.Event) int64 {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx event.TxRepo) error {
		return tx.InsertEvent(context.Background(), &e)
	})
	require.NoError(t, err)
	return e.ID
}

func TestWithTx_RollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := insertEvent(t, s, domain.Event{Title: "a", State: domain.StatePending, EventDate: t0})

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx event.TxRepo) error {
		ev, err := tx.GetEventForUpdate(ctx, id)
		require.NoError(t, err)
		ev.Title = "changed"
		require.NoError(t, tx.UpdateEvent(ctx, ev))
		require.NoError(t, tx.InsertRequest(ctx, &domain.ParticipationRequest{EventID: id, RequesterID: 2, Status: domain.RequestPending}))
		require.NoError(t, tx.AppendOutbox(ctx, domain.OutboxMessage{RoutingKey: "x"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	ev, err := s.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", ev.Title)
	reqs, _ := s.ListRequestsByEvent(ctx, id)
	assert.Empty(t, reqs)
	assert.Empty(t, s.Outbox())
}

func TestWithTx_ReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := insertEvent(t, s, domain.Event{State: domain.StatePublished, EventDate: t0})

	err := s.WithTx(ctx, func(tx event.TxRepo) error {
		_, err := tx.GetEventForUpdate(ctx, id)
		require.NoError(t, err)
		r := &domain.ParticipationRequest{EventID: id, RequesterID: 2, Status: domain.RequestConfirmed}
		require.NoError(t, tx.InsertRequest(ctx, r))

		ledger, err := tx.ActiveRequests(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, ledger.Confirmed())

		dup := &domain.ParticipationRequest{EventID: id, RequesterID: 2, Status: domain.RequestPending}
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(tx.InsertRequest(ctx, dup)))
		return nil
	})
	require.NoError(t, err)

	counts, err := s.ConfirmedCounts(ctx, []int64{id})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[id])
}

func TestGetEventForUpdate_SerializesWriters(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := insertEvent(t, s, domain.Event{State: domain.StatePublished, EventDate: t0, ParticipantLimit: 1})

	var wg sync.WaitGroup
	admitted := 0
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(requester int64) {
			defer wg.Done()
			_ = s.WithTx(ctx, func(tx event.TxRepo) error {
				if _, err := tx.GetEventForUpdate(ctx, id); err != nil {
					return err
				}
				ledger, _ := tx.ActiveRequests(ctx, id)
				if ledger.Confirmed() >= 1 {
					return domain.ErrConflict("limit reached")
				}
				mu.Lock()
				admitted++
				mu.Unlock()
				return tx.InsertRequest(ctx, &domain.ParticipationRequest{EventID: id, RequesterID: requester, Status: domain.RequestConfirmed})
			})
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	counts, _ := s.ConfirmedCounts(ctx, []int64{id})
	assert.Equal(t, 1, counts[id])
}

func TestListEvents_FilterOrderWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	late := insertEvent(t, s, domain.Event{Title: "Late jazz", State: domain.StatePublished, EventDate: t0.Add(5 * time.Hour)})
	early := insertEvent(t, s, domain.Event{Title: "Early JAZZ", State: domain.StatePublished, EventDate: t0.Add(time.Hour)})
	insertEvent(t, s, domain.Event{Title: "Rock", State: domain.StatePublished, EventDate: t0.Add(2 * time.Hour)})
	insertEvent(t, s, domain.Event{Title: "Jazz draft", State: domain.StatePending, EventDate: t0})

	f := event.ListFilter{Text: "jazz", States: []domain.EventState{domain.StatePublished}}
	evs, err := s.ListEvents(ctx, f, 0, 0)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, early, evs[0].ID)
	assert.Equal(t, late, evs[1].ID)

	evs, err = s.ListEvents(ctx, f, 1, 1)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, late, evs[0].ID)

	evs, err = s.ListEvents(ctx, f, 5, 1)
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutCategory(domain.Category{ID: 1, Name: "Music"})
	s.PutUser(domain.User{ID: 2, Name: "Ann"})

	c, err := s.GetCategory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Music", c.Name)
	_, err = s.GetCategory(ctx, 9)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))

	_, err = s.GetUser(ctx, 9)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))

	a, _ := s.SaveLocation(ctx, domain.Location{Lat: 1, Lon: 2})
	b, _ := s.SaveLocation(ctx, domain.Location{Lat: 1, Lon: 2})
	assert.NotEqual(t, a, b)
}
