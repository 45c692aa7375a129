package capacity

import (
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

// Admit decides the initial status of a new request from requesterID.
func Admit(ev *domain.Event, requesterID int64, ledger Ledger) (domain.RequestStatus, error) {
	if requesterID == ev.InitiatorID {
		return "", domain.ErrConflict("requester cannot be initiator")
	}
	if ev.State != domain.StatePublished {
		return "", domain.ErrConflict("event is not published")
	}
	if ledger.HasActive(requesterID) {
		return "", domain.ErrConflict("duplicate request")
	}
	if !ledger.Slots(ev).HasRoom() {
		return "", domain.ErrConflict("limit reached")
	}
	if ev.ParticipantLimit == 0 || !ev.RequestModeration {
		return domain.RequestConfirmed, nil
	}
	return domain.RequestPending, nil
}

// Decision is the outcome of a moderation batch, in caller order.
type Decision struct {
	Confirmed []domain.ParticipationRequest
	Rejected  []domain.ParticipationRequest
}

// Changed returns every request whose status was decided, confirmed first.
func (d Decision) Changed() []domain.ParticipationRequest {
	out := make([]domain.ParticipationRequest, 0, len(d.Confirmed)+len(d.Rejected))
	out = append(out, d.Confirmed...)
	return append(out, d.Rejected...)
}

// Moderate applies desired to batch with fill-then-spill semantics. batch must
// already be in caller order and contain only requests of ev. The inputs are
// not mutated; the returned copies carry the new statuses.
func Moderate(ev *domain.Event, ledger Ledger, batch []domain.ParticipationRequest, desired domain.RequestStatus) (Decision, error) {
	if desired != domain.RequestConfirmed && desired != domain.RequestRejected {
		return Decision{}, domain.ErrValidationMeta("invalid moderation status", map[string]string{
			"status": "must be one of: CONFIRMED, REJECTED",
		})
	}
	for _, r := range batch {
		if r.EventID != ev.ID {
			return Decision{}, domain.ErrNotFound("request not found for event")
		}
		if r.Status != domain.RequestPending {
			return Decision{}, domain.ErrConflict("only pending requests can be moderated")
		}
	}

	var d Decision
	if desired == domain.RequestRejected {
		for _, r := range batch {
			r.Status = domain.RequestRejected
			d.Rejected = append(d.Rejected, r)
		}
		return d, nil
	}

	space := ledger.Slots(ev)
	if !space.HasRoom() {
		return Decision{}, domain.ErrConflict("limit reached")
	}
	left := space.Remaining()
	for _, r := range batch {
		if space.IsUnlimited() || left > 0 {
			r.Status = domain.RequestConfirmed
			d.Confirmed = append(d.Confirmed, r)
			left--
			continue
		}
		r.Status = domain.RequestRejected
		d.Rejected = append(d.Rejected, r)
	}
	return d, nil
}
