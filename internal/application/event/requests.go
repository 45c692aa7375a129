package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/capacity"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/metrics"
)

// -------------------------
// Lock order, for every operation touching a ledger:
//   1) the event row (GetEventForUpdate)
//   2) request rows, ascending id (GetRequestsForUpdate)
// The event lock is what serializes admission against moderation.
// -------------------------

func (s *Service) CreateParticipationRequest(ctx context.Context, requesterID, eventID int64) (*domain.ParticipationRequest, error) {
	if _, err := s.users.GetUser(ctx, requesterID); err != nil {
		return nil, err
	}

	var req *domain.ParticipationRequest
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		ev, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		ledger, err := tx.ActiveRequests(ctx, eventID)
		if err != nil {
			return err
		}
		status, err := capacity.Admit(ev, requesterID, ledger)
		if err != nil {
			return err
		}

		req = domain.NewRequest(eventID, requesterID, status, s.now())
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}
		return s.appendOutbox(ctx, tx, domain.RKRequestCreated, domain.RequestsChanged{
			EventID:    eventID,
			Status:     string(status),
			RequestIDs: []int64{req.ID},
			OccurredAt: domain.FormatTime(req.Created),
		})
	})
	if err != nil {
		if domain.CodeOf(err) == domain.CodeConflict {
			metrics.RecordConflict("admit")
		}
		return nil, err
	}

	metrics.RecordAdmission(string(req.Status))
	logger.WithCtx(ctx).Info().
		Int64("event_id", eventID).
		Int64("request_id", req.ID).
		Str("status", string(req.Status)).
		Msg("participation request created")
	return req, nil
}

// ModerateRequests confirms or rejects a batch of pending requests of an
// owned event. requestIDs order decides who gets the remaining slots.
func (s *Service) ModerateRequests(
	ctx context.Context,
	ownerID, eventID int64,
	requestIDs []int64,
	desired domain.RequestStatus,
) (capacity.Decision, error) {
	if len(requestIDs) == 0 {
		return capacity.Decision{}, domain.ErrValidationMeta("invalid body", map[string]string{
			"requestIds": "must not be empty",
		})
	}
	seen := make(map[int64]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		if _, dup := seen[id]; dup {
			return capacity.Decision{}, domain.ErrValidationMeta("invalid body", map[string]string{
				"requestIds": "must not contain duplicates",
			})
		}
		seen[id] = struct{}{}
	}
	if desired != domain.RequestConfirmed && desired != domain.RequestRejected {
		return capacity.Decision{}, domain.ErrValidationMeta("invalid moderation status", map[string]string{
			"status": "must be one of: CONFIRMED, REJECTED",
		})
	}

	var decision capacity.Decision
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		ev, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.InitiatorID != ownerID {
			return domain.ErrNotFound("event not found")
		}
		ledger, err := tx.ActiveRequests(ctx, eventID)
		if err != nil {
			return err
		}
		rows, err := tx.GetRequestsForUpdate(ctx, requestIDs)
		if err != nil {
			return err
		}

		byID := make(map[int64]domain.ParticipationRequest, len(rows))
		for _, r := range rows {
			byID[r.ID] = r
		}
		batch := make([]domain.ParticipationRequest, 0, len(requestIDs))
		for _, id := range requestIDs {
			r, ok := byID[id]
			if !ok {
				return domain.ErrNotFound("request not found")
			}
			batch = append(batch, r)
		}

		decision, err = capacity.Moderate(ev, ledger, batch, desired)
		if err != nil {
			return err
		}
		if err := tx.UpdateRequestStatuses(ctx, decision.Changed()); err != nil {
			return err
		}
		return s.appendModerationOutbox(ctx, tx, eventID, decision)
	})
	if err != nil {
		if domain.CodeOf(err) == domain.CodeConflict {
			metrics.RecordConflict("moderate")
		}
		return capacity.Decision{}, err
	}

	metrics.RecordModeration(string(domain.RequestConfirmed), len(decision.Confirmed))
	metrics.RecordModeration(string(domain.RequestRejected), len(decision.Rejected))
	logger.WithCtx(ctx).Info().
		Int64("event_id", eventID).
		Int("confirmed", len(decision.Confirmed)).
		Int("rejected", len(decision.Rejected)).
		Msg("requests moderated")
	return decision, nil
}

func (s *Service) appendModerationOutbox(ctx context.Context, tx TxRepo, eventID int64, d capacity.Decision) error {
	now := domain.FormatTime(s.now())
	for _, part := range []struct {
		status domain.RequestStatus
		rows   []domain.ParticipationRequest
	}{
		{domain.RequestConfirmed, d.Confirmed},
		{domain.RequestRejected, d.Rejected},
	} {
		if len(part.rows) == 0 {
			continue
		}
		ids := make([]int64, 0, len(part.rows))
		for _, r := range part.rows {
			ids = append(ids, r.ID)
		}
		if err := s.appendOutbox(ctx, tx, domain.RKRequestModerated, domain.RequestsChanged{
			EventID:    eventID,
			Status:     string(part.status),
			RequestIDs: ids,
			OccurredAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// CancelOwnRequest withdraws a request. Canceling an already canceled request
// returns it unchanged.
func (s *Service) CancelOwnRequest(ctx context.Context, requesterID, requestID int64) (*domain.ParticipationRequest, error) {
	// Unlocked read to learn the event, so the event lock is still taken first.
	probe, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if probe.RequesterID != requesterID {
		return nil, domain.ErrNotFound("request not found")
	}

	var req domain.ParticipationRequest
	err = s.repo.WithTx(ctx, func(tx TxRepo) error {
		if _, err := tx.GetEventForUpdate(ctx, probe.EventID); err != nil {
			return err
		}
		rows, err := tx.GetRequestsForUpdate(ctx, []int64{requestID})
		if err != nil {
			return err
		}
		if len(rows) != 1 || rows[0].RequesterID != requesterID {
			return domain.ErrNotFound("request not found")
		}
		req = rows[0]
		if req.Status == domain.RequestCanceled {
			return nil
		}
		req.Cancel()
		if err := tx.UpdateRequestStatuses(ctx, []domain.ParticipationRequest{req}); err != nil {
			return err
		}
		return s.appendOutbox(ctx, tx, domain.RKRequestCanceled, domain.RequestsChanged{
			EventID:    req.EventID,
			Status:     string(req.Status),
			RequestIDs: []int64{req.ID},
			OccurredAt: domain.FormatTime(s.now()),
		})
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Service) ListEventRequests(ctx context.Context, ownerID, eventID int64) ([]domain.ParticipationRequest, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.InitiatorID != ownerID {
		return nil, domain.ErrNotFound("event not found")
	}
	return s.repo.ListRequestsByEvent(ctx, eventID)
}

func (s *Service) ListUserRequests(ctx context.Context, userID int64) ([]domain.ParticipationRequest, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListRequestsByRequester(ctx, userID)
}
