package capacity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

const initiator = int64(1)

func publishedEvent(limit int, moderation bool) *domain.Event {
	now := time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)
	return &domain.Event{
		ID:                10,
		InitiatorID:       initiator,
		ParticipantLimit:  limit,
		RequestModeration: moderation,
		State:             domain.StatePublished,
		PublishedOn:       &now,
		EventDate:         now.Add(48 * time.Hour),
	}
}

func pending(id, requester int64) domain.ParticipationRequest {
	return domain.ParticipationRequest{ID: id, EventID: 10, RequesterID: requester, Status: domain.RequestPending}
}

func confirmed(id, requester int64) domain.ParticipationRequest {
	r := pending(id, requester)
	r.Status = domain.RequestConfirmed
	return r
}

func ids(rs []domain.ParticipationRequest) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestAvailableSlots(t *testing.T) {
	s := AvailableSlots(0, 1000)
	assert.True(t, s.IsUnlimited())
	assert.True(t, s.HasRoom())
	assert.Equal(t, "unlimited", s.String())

	s = AvailableSlots(3, 1)
	assert.False(t, s.IsUnlimited())
	assert.Equal(t, 2, s.Remaining())
	assert.True(t, s.HasRoom())

	s = AvailableSlots(3, 3)
	assert.False(t, s.HasRoom())
	assert.Equal(t, "0", s.String())
}

func TestLedger(t *testing.T) {
	l := Ledger{confirmed(1, 2), pending(2, 3), confirmed(3, 4)}
	assert.Equal(t, 2, l.Confirmed())
	assert.True(t, l.HasActive(3))
	assert.False(t, l.HasActive(5))
	assert.Equal(t, 1, l.Slots(publishedEvent(3, true)).Remaining())
}

func TestAdmit(t *testing.T) {
	t.Run("initiator_conflict", func(t *testing.T) {
		_, err := Admit(publishedEvent(0, true), initiator, nil)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
		assert.Contains(t, err.Error(), "requester cannot be initiator")
	})

	t.Run("unpublished_conflict", func(t *testing.T) {
		ev := publishedEvent(0, true)
		ev.State = domain.StatePending
		_, err := Admit(ev, 2, nil)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("duplicate_conflict", func(t *testing.T) {
		_, err := Admit(publishedEvent(5, true), 2, Ledger{pending(1, 2)})
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
		assert.Contains(t, err.Error(), "duplicate request")
	})

	t.Run("limit_reached", func(t *testing.T) {
		_, err := Admit(publishedEvent(2, true), 9, Ledger{confirmed(1, 2), confirmed(2, 3)})
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
		assert.Contains(t, err.Error(), "limit reached")
	})

	t.Run("unlimited_always_confirmed", func(t *testing.T) {
		ledger := Ledger{}
		for i := int64(2); i < 50; i++ {
			st, err := Admit(publishedEvent(0, true), i, ledger)
			require.NoError(t, err)
			assert.Equal(t, domain.RequestConfirmed, st)
			ledger = append(ledger, confirmed(i, i))
		}
		assert.True(t, ledger.Slots(publishedEvent(0, true)).IsUnlimited())
	})

	t.Run("no_moderation_confirmed", func(t *testing.T) {
		st, err := Admit(publishedEvent(5, false), 2, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestConfirmed, st)
	})

	t.Run("moderated_pending", func(t *testing.T) {
		st, err := Admit(publishedEvent(5, true), 2, Ledger{pending(1, 3)})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestPending, st)
	})
}

func TestModerate(t *testing.T) {
	batch := []domain.ParticipationRequest{pending(1, 11), pending(2, 12), pending(3, 13), pending(4, 14), pending(5, 15)}

	t.Run("fill_then_spill", func(t *testing.T) {
		d, err := Moderate(publishedEvent(3, true), Ledger(batch), batch, domain.RequestConfirmed)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids(d.Confirmed))
		assert.Equal(t, []int64{4, 5}, ids(d.Rejected))
		for _, r := range d.Confirmed {
			assert.Equal(t, domain.RequestConfirmed, r.Status)
		}
		for _, r := range d.Rejected {
			assert.Equal(t, domain.RequestRejected, r.Status)
		}
		// inputs untouched
		assert.Equal(t, domain.RequestPending, batch[0].Status)
		assert.Len(t, d.Changed(), 5)
	})

	t.Run("caller_order_respected", func(t *testing.T) {
		reordered := []domain.ParticipationRequest{batch[4], batch[2], batch[0]}
		d, err := Moderate(publishedEvent(2, true), Ledger(batch), reordered, domain.RequestConfirmed)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 3}, ids(d.Confirmed))
		assert.Equal(t, []int64{1}, ids(d.Rejected))
	})

	t.Run("enough_space_confirms_all", func(t *testing.T) {
		d, err := Moderate(publishedEvent(10, true), Ledger(batch), batch, domain.RequestConfirmed)
		require.NoError(t, err)
		assert.Len(t, d.Confirmed, 5)
		assert.Empty(t, d.Rejected)
	})

	t.Run("unlimited_confirms_all", func(t *testing.T) {
		d, err := Moderate(publishedEvent(0, true), Ledger(batch), batch, domain.RequestConfirmed)
		require.NoError(t, err)
		assert.Len(t, d.Confirmed, 5)
	})

	t.Run("no_space_fails_whole_batch", func(t *testing.T) {
		ledger := Ledger{confirmed(20, 30), confirmed(21, 31)}
		d, err := Moderate(publishedEvent(2, true), ledger, batch[:2], domain.RequestConfirmed)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
		assert.Contains(t, err.Error(), "limit reached")
		assert.Empty(t, d.Changed())
	})

	t.Run("reject_is_unconditional", func(t *testing.T) {
		ledger := Ledger{confirmed(20, 30), confirmed(21, 31)}
		d, err := Moderate(publishedEvent(2, true), ledger, batch[:2], domain.RequestRejected)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids(d.Rejected))
		assert.Empty(t, d.Confirmed)
	})

	t.Run("non_pending_aborts", func(t *testing.T) {
		mixed := []domain.ParticipationRequest{pending(1, 11), confirmed(2, 12)}
		_, err := Moderate(publishedEvent(5, true), Ledger(mixed), mixed, domain.RequestConfirmed)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))

		_, err = Moderate(publishedEvent(5, true), Ledger(mixed), mixed, domain.RequestRejected)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("foreign_request_not_found", func(t *testing.T) {
		other := pending(99, 11)
		other.EventID = 77
		_, err := Moderate(publishedEvent(5, true), nil, []domain.ParticipationRequest{other}, domain.RequestConfirmed)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("invalid_status", func(t *testing.T) {
		_, err := Moderate(publishedEvent(5, true), nil, batch, domain.RequestCanceled)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})
}
