// Package capacity decides admission and moderation outcomes for an event's
// participation requests. It operates on an explicitly loaded ledger and never
// touches storage; callers hold the event lock while they use it.
package capacity

import "strconv"

// Slots is the remaining confirmable capacity of an event. The zero value is
// "no room"; Unlimited() marks events with participantLimit == 0.
type Slots struct {
	remaining int
	unlimited bool
}

func Unlimited() Slots { return Slots{unlimited: true} }

func Finite(n int) Slots { return Slots{remaining: n} }

func (s Slots) IsUnlimited() bool { return s.unlimited }

// Remaining is only meaningful when the slots are finite.
func (s Slots) Remaining() int { return s.remaining }

func (s Slots) HasRoom() bool { return s.unlimited || s.remaining > 0 }

func (s Slots) String() string {
	if s.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(s.remaining)
}

// AvailableSlots is the single capacity formula used by both admission and
// moderation.
func AvailableSlots(limit, confirmed int) Slots {
	if limit == 0 {
		return Unlimited()
	}
	return Finite(limit - confirmed)
}
