package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/metrics"
)

// TransitionEvent applies a lifecycle action with admin authority.
func (s *Service) TransitionEvent(ctx context.Context, eventID int64, action domain.StateAction) (*EventView, error) {
	if !action.Valid() {
		return nil, domain.ErrValidationMeta("unknown state action", map[string]string{
			"stateAction": string(action),
		})
	}

	var ev *domain.Event
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		var err error
		ev, err = tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, tx, ev, action, s.now()); err != nil {
			return err
		}
		return tx.UpdateEvent(ctx, ev)
	})
	if err != nil {
		if domain.CodeOf(err) == domain.CodeConflict {
			metrics.RecordConflict("transition")
		}
		return nil, err
	}
	return s.view(ctx, ev)
}

func (s *Service) transition(ctx context.Context, tx TxRepo, ev *domain.Event, action domain.StateAction, now time.Time) error {
	if err := ev.Transition(action, now); err != nil {
		return err
	}
	metrics.RecordTransition(string(action))

	var rk string
	switch ev.State {
	case domain.StatePublished:
		rk = domain.RKEventPublished
	case domain.StateCanceled:
		rk = domain.RKEventCanceled
	default:
		return nil
	}
	return s.appendOutbox(ctx, tx, rk, domain.EventStateChanged{
		EventID:    ev.ID,
		Action:     string(action),
		State:      string(ev.State),
		OccurredAt: domain.FormatTime(now),
	})
}
