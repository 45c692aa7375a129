package domain

import "strings"

type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

func (s EventState) Valid() bool {
	return s == StatePending || s == StatePublished || s == StateCanceled
}

func ParseEventState(s string) (EventState, error) {
	st := EventState(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrValidationMeta("unknown event state", map[string]string{"state": s})
	}
	return st, nil
}

// StateAction is the closed set of lifecycle commands.
type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublishEvent StateAction = "PUBLISH_EVENT"
	ActionRejectEvent  StateAction = "REJECT_EVENT"
)

func (a StateAction) Valid() bool {
	switch a {
	case ActionSendToReview, ActionCancelReview, ActionPublishEvent, ActionRejectEvent:
		return true
	}
	return false
}

// OwnerAction reports whether the initiator may issue a.
func (a StateAction) OwnerAction() bool {
	return a == ActionSendToReview || a == ActionCancelReview
}

// AdminAction reports whether a belongs to the admin update path.
func (a StateAction) AdminAction() bool {
	return a == ActionPublishEvent || a == ActionRejectEvent
}

func ParseStateAction(s string) (StateAction, error) {
	a := StateAction(strings.TrimSpace(s))
	if !a.Valid() {
		return "", ErrValidationMeta("unknown state action", map[string]string{
			"state_action": s,
		})
	}
	return a, nil
}
