// Package memory is a process-local implementation of the event store and the
// reference lookups. Writes in a unit of work are staged and applied on commit;
// GetEventForUpdate holds a per-event lock until the unit of work ends.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type Store struct {
	mu sync.Mutex

	events     map[int64]domain.Event
	requests   map[int64]domain.ParticipationRequest
	categories map[int64]domain.Category
	users      map[int64]domain.User
	locations  map[int64]domain.Location
	outbox     []domain.OutboxMessage

	eventSeq    int64
	requestSeq  int64
	locationSeq int64

	eventLocks map[int64]*sync.Mutex
}

func New() *Store {
	return &Store{
		events:     map[int64]domain.Event{},
		requests:   map[int64]domain.ParticipationRequest{},
		categories: map[int64]domain.Category{},
		users:      map[int64]domain.User{},
		locations:  map[int64]domain.Location{},
		eventLocks: map[int64]*sync.Mutex{},
	}
}

var (
	_ event.EventRepo      = (*Store)(nil)
	_ event.CategoryLookup = (*Store)(nil)
	_ event.UserLookup     = (*Store)(nil)
	_ event.LocationStore  = (*Store)(nil)
)

// --- reference data ---

func (s *Store) PutCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetCategory(_ context.Context, id int64) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound("category not found")
	}
	return c, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound("user not found")
	}
	return u, nil
}

func (s *Store) SaveLocation(_ context.Context, loc domain.Location) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationSeq++
	s.locations[s.locationSeq] = loc
	return s.locationSeq, nil
}

// Outbox returns a copy of the committed outbox messages.
func (s *Store) Outbox() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxMessage(nil), s.outbox...)
}

// --- committed reads ---

func (s *Store) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	return &e, nil
}

func (s *Store) ListEvents(_ context.Context, f event.ListFilter, offset, limit int) ([]*domain.Event, error) {
	s.mu.Lock()
	out := make([]*domain.Event, 0)
	for _, e := range s.events {
		if f.Matches(&e) {
			cp := e
			out = append(out, &cp)
		}
	}
	s.mu.Unlock()

	sortByDate(out)
	return window(out, offset, limit), nil
}

func (s *Store) ListByInitiator(_ context.Context, initiatorID int64, offset, limit int) ([]*domain.Event, error) {
	s.mu.Lock()
	out := make([]*domain.Event, 0)
	for _, e := range s.events {
		if e.InitiatorID == initiatorID {
			cp := e
			out = append(out, &cp)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, offset, limit), nil
}

func (s *Store) ConfirmedCounts(_ context.Context, eventIDs []int64) (map[int64]int, error) {
	want := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int, len(eventIDs))
	for _, r := range s.requests {
		if want[r.EventID] && r.Status == domain.RequestConfirmed {
			out[r.EventID]++
		}
	}
	return out, nil
}

func (s *Store) GetRequest(_ context.Context, id int64) (*domain.ParticipationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound("request not found")
	}
	return &r, nil
}

func (s *Store) ListRequestsByEvent(_ context.Context, eventID int64) ([]domain.ParticipationRequest, error) {
	return s.filterRequests(func(r domain.ParticipationRequest) bool { return r.EventID == eventID }), nil
}

func (s *Store) ListRequestsByRequester(_ context.Context, requesterID int64) ([]domain.ParticipationRequest, error) {
	return s.filterRequests(func(r domain.ParticipationRequest) bool { return r.RequesterID == requesterID }), nil
}

func (s *Store) filterRequests(keep func(domain.ParticipationRequest) bool) []domain.ParticipationRequest {
	s.mu.Lock()
	out := make([]domain.ParticipationRequest, 0)
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) eventLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.eventLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.eventLocks[id] = l
	}
	return l
}

func sortByDate(evs []*domain.Event) {
	sort.Slice(evs, func(i, j int) bool {
		if !evs[i].EventDate.Equal(evs[j].EventDate) {
			return evs[i].EventDate.Before(evs[j].EventDate)
		}
		return evs[i].ID < evs[j].ID
	})
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
