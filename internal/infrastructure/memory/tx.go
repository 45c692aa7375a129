package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/capacity"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type txRepo struct {
	s    *Store
	held map[int64]*sync.Mutex

	events   map[int64]domain.Event
	requests map[int64]domain.ParticipationRequest
	outbox   []domain.OutboxMessage
}

func (s *Store) WithTx(ctx context.Context, fn func(tr event.TxRepo) error) error {
	tr := &txRepo{
		s:        s,
		held:     map[int64]*sync.Mutex{},
		events:   map[int64]domain.Event{},
		requests: map[int64]domain.ParticipationRequest{},
	}
	defer tr.release()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tr); err != nil {
		return err
	}
	return tr.commit()
}

func (t *txRepo) release() {
	for _, l := range t.held {
		l.Unlock()
	}
	t.held = nil
}

func (t *txRepo) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, e := range t.events {
		t.s.events[id] = e
	}
	for id, r := range t.requests {
		t.s.requests[id] = r
	}
	t.s.outbox = append(t.s.outbox, t.outbox...)
	return nil
}

func (t *txRepo) InsertEvent(_ context.Context, e *domain.Event) error {
	t.s.mu.Lock()
	t.s.eventSeq++
	e.ID = t.s.eventSeq
	t.s.mu.Unlock()

	t.events[e.ID] = *e
	return nil
}

func (t *txRepo) GetEventForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	if _, ok := t.held[id]; !ok {
		l := t.s.eventLock(id)
		l.Lock()
		t.held[id] = l
	}
	if e, ok := t.events[id]; ok {
		return &e, nil
	}
	return t.s.GetEvent(ctx, id)
}

func (t *txRepo) UpdateEvent(_ context.Context, e *domain.Event) error {
	if _, ok := t.held[e.ID]; !ok {
		if _, staged := t.events[e.ID]; !staged {
			return domain.ErrNotFound("event not locked")
		}
	}
	t.events[e.ID] = *e
	return nil
}

// snapshot merges committed requests with this unit of work's staged writes.
func (t *txRepo) snapshot(keep func(domain.ParticipationRequest) bool) []domain.ParticipationRequest {
	t.s.mu.Lock()
	merged := make(map[int64]domain.ParticipationRequest)
	for id, r := range t.s.requests {
		merged[id] = r
	}
	t.s.mu.Unlock()
	for id, r := range t.requests {
		merged[id] = r
	}

	out := make([]domain.ParticipationRequest, 0)
	for _, r := range merged {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *txRepo) ActiveRequests(_ context.Context, eventID int64) (capacity.Ledger, error) {
	return capacity.Ledger(t.snapshot(func(r domain.ParticipationRequest) bool {
		return r.EventID == eventID && r.Status != domain.RequestCanceled
	})), nil
}

func (t *txRepo) GetRequestsForUpdate(_ context.Context, ids []int64) ([]domain.ParticipationRequest, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return t.snapshot(func(r domain.ParticipationRequest) bool { return want[r.ID] }), nil
}

func (t *txRepo) InsertRequest(_ context.Context, r *domain.ParticipationRequest) error {
	dup := t.snapshot(func(x domain.ParticipationRequest) bool {
		return x.EventID == r.EventID && x.RequesterID == r.RequesterID && x.Status != domain.RequestCanceled
	})
	if len(dup) > 0 {
		return domain.ErrConflict("duplicate request")
	}

	t.s.mu.Lock()
	t.s.requestSeq++
	r.ID = t.s.requestSeq
	t.s.mu.Unlock()

	t.requests[r.ID] = *r
	return nil
}

func (t *txRepo) UpdateRequestStatuses(_ context.Context, rs []domain.ParticipationRequest) error {
	for _, r := range rs {
		t.requests[r.ID] = r
	}
	return nil
}

func (t *txRepo) AppendOutbox(_ context.Context, m domain.OutboxMessage) error {
	t.outbox = append(t.outbox, m)
	return nil
}
