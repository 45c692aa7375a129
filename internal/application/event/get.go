package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

// GetPublicEvent returns a published event and records the view.
func (s *Service) GetPublicEvent(ctx context.Context, eventID int64, clientIP string) (*EventView, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.State != domain.StatePublished {
		return nil, domain.ErrNotFound("event not found")
	}
	s.recordHit(ctx, ev.URI(), clientIP)
	return s.view(ctx, ev)
}

func (s *Service) GetOwnerEvent(ctx context.Context, ownerID, eventID int64) (*EventView, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.InitiatorID != ownerID {
		return nil, domain.ErrNotFound("event not found")
	}
	return s.view(ctx, ev)
}

func (s *Service) ListOwnerEvents(ctx context.Context, ownerID int64, from, size int) ([]EventView, error) {
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if from < 0 {
		return nil, domain.ErrValidationMeta("invalid query param", map[string]string{"from": "must be >= 0"})
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	evs, err := s.repo.ListByInitiator(ctx, ownerID, from, size)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, evs)
}
