package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
)

func (s *Service) CreateEvent(ctx context.Context, ownerID int64, d domain.Draft) (*EventView, error) {
	initiator, err := s.users.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	category, err := s.categories.GetCategory(ctx, d.CategoryID)
	if err != nil {
		return nil, err
	}

	ev, err := domain.NewEvent(ownerID, d, s.now())
	if err != nil {
		return nil, err
	}

	locID, err := s.locations.SaveLocation(ctx, ev.Location)
	if err != nil {
		return nil, err
	}
	ev.LocationID = locID

	if err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		return tx.InsertEvent(ctx, ev)
	}); err != nil {
		return nil, err
	}

	logger.WithCtx(ctx).Info().
		Int64("event_id", ev.ID).
		Int64("initiator_id", ownerID).
		Msg("event created")

	return &EventView{Event: *ev, Category: category, Initiator: initiator}, nil
}
