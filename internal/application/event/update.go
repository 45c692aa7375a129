package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/metrics"
)

func (s *Service) UpdateEventByOwner(ctx context.Context, ownerID, eventID int64, p domain.Patch) (*EventView, error) {
	if p.StateAction != nil && !p.StateAction.OwnerAction() {
		return nil, domain.ErrValidationMeta("state action not allowed", map[string]string{
			"stateAction": "must be one of: SEND_TO_REVIEW, CANCEL_REVIEW",
		})
	}
	locID, err := s.resolvePatchRefs(ctx, p)
	if err != nil {
		return nil, err
	}

	var ev *domain.Event
	err = s.repo.WithTx(ctx, func(tx TxRepo) error {
		var err error
		ev, err = tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.InitiatorID != ownerID {
			return domain.ErrNotFound("event not found")
		}
		if err := ev.CheckOwnerEditable(); err != nil {
			return err
		}
		return s.applyPatch(ctx, tx, ev, p, locID, domain.OwnerLeadTime)
	})
	if err != nil {
		if domain.CodeOf(err) == domain.CodeConflict {
			metrics.RecordConflict("update_by_owner")
		}
		return nil, err
	}
	return s.view(ctx, ev)
}

func (s *Service) UpdateEventByAdmin(ctx context.Context, eventID int64, p domain.Patch) (*EventView, error) {
	if p.StateAction != nil && !p.StateAction.AdminAction() {
		return nil, domain.ErrValidationMeta("state action not allowed", map[string]string{
			"stateAction": "must be one of: PUBLISH_EVENT, REJECT_EVENT",
		})
	}
	locID, err := s.resolvePatchRefs(ctx, p)
	if err != nil {
		return nil, err
	}

	var ev *domain.Event
	err = s.repo.WithTx(ctx, func(tx TxRepo) error {
		var err error
		ev, err = tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		return s.applyPatch(ctx, tx, ev, p, locID, domain.AdminLeadTime)
	})
	if err != nil {
		if domain.CodeOf(err) == domain.CodeConflict {
			metrics.RecordConflict("update_by_admin")
		}
		return nil, err
	}
	return s.view(ctx, ev)
}

// resolvePatchRefs checks the category and stores a new location before the
// transaction starts. It returns the new location id, or 0 if unchanged.
func (s *Service) resolvePatchRefs(ctx context.Context, p domain.Patch) (int64, error) {
	if p.CategoryID != nil {
		if _, err := s.categories.GetCategory(ctx, *p.CategoryID); err != nil {
			return 0, err
		}
	}
	if p.Location == nil {
		return 0, nil
	}
	if err := p.Location.Validate(); err != nil {
		return 0, err
	}
	return s.locations.SaveLocation(ctx, *p.Location)
}

// applyPatch runs inside the transaction with ev locked.
func (s *Service) applyPatch(ctx context.Context, tx TxRepo, ev *domain.Event, p domain.Patch, locID int64, lead time.Duration) error {
	now := s.now()
	if err := ev.ApplyPatch(p); err != nil {
		return err
	}
	if locID != 0 {
		ev.LocationID = locID
	}
	if p.EventDate != nil {
		if err := ev.EnsureLeadTime(now, lead); err != nil {
			return err
		}
	}
	if p.ParticipantLimit != nil && ev.ParticipantLimit > 0 {
		ledger, err := tx.ActiveRequests(ctx, ev.ID)
		if err != nil {
			return err
		}
		if ledger.Confirmed() > ev.ParticipantLimit {
			return domain.ErrConflict("participant limit is below confirmed requests")
		}
	}
	if p.StateAction != nil {
		if err := s.transition(ctx, tx, ev, *p.StateAction, now); err != nil {
			return err
		}
	}
	return tx.UpdateEvent(ctx, ev)
}
