package capacity

import "github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"

// Ledger is the set of non-canceled requests of one event.
type Ledger []domain.ParticipationRequest

func (l Ledger) Confirmed() int {
	n := 0
	for _, r := range l {
		if r.Status == domain.RequestConfirmed {
			n++
		}
	}
	return n
}

// HasActive reports whether requester already holds a non-canceled request.
func (l Ledger) HasActive(requesterID int64) bool {
	for _, r := range l {
		if r.RequesterID == requesterID && r.Status != domain.RequestCanceled {
			return true
		}
	}
	return false
}

func (l Ledger) Slots(ev *domain.Event) Slots {
	return AvailableSlots(ev.ParticipantLimit, l.Confirmed())
}
