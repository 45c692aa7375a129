package event

import (
	"context"
	"sort"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/capacity"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

// ListEvents is the admin listing: every predicate is caller-controlled.
func (s *Service) ListEvents(ctx context.Context, f ListFilter) ([]EventView, error) {
	return s.list(ctx, f)
}

// ListPublicEvents lists published events from now on (unless a range start is
// given) and records the listing view.
func (s *Service) ListPublicEvents(ctx context.Context, f ListFilter, clientIP string) ([]EventView, error) {
	f.States = []domain.EventState{domain.StatePublished}
	if f.RangeStart == nil {
		now := s.now()
		f.RangeStart = &now
	}
	out, err := s.list(ctx, f)
	if err != nil {
		return nil, err
	}
	s.recordHit(ctx, domain.EventsURI, clientIP)
	return out, nil
}

func (s *Service) list(ctx context.Context, f ListFilter) ([]EventView, error) {
	if err := f.normalize(); err != nil {
		return nil, err
	}

	// Availability and view order are only known after enrichment, so those
	// listings page in memory.
	inMemory := f.OnlyAvailable || f.Sort == SortViews
	offset, limit := f.From, f.Size
	if inMemory {
		offset, limit = 0, 0
	}

	evs, err := s.repo.ListEvents(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	out, err := s.enrich(ctx, evs)
	if err != nil {
		return nil, err
	}

	if f.OnlyAvailable {
		kept := out[:0]
		for _, v := range out {
			if capacity.AvailableSlots(v.Event.ParticipantLimit, v.ConfirmedRequests).HasRoom() {
				kept = append(kept, v)
			}
		}
		out = kept
	}
	if f.Sort == SortViews {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	}
	if inMemory {
		out = page(out, f.From, f.Size)
	}
	return out, nil
}

func page[T any](items []T, from, size int) []T {
	if from >= len(items) {
		return []T{}
	}
	end := from + size
	if end > len(items) {
		end = len(items)
	}
	return items[from:end]
}
