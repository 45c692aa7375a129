package domain

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestConfirmed, RequestRejected, RequestCanceled:
		return true
	}
	return false
}

// ParseModerationStatus accepts only the two outcomes an owner may choose.
func ParseModerationStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if st != RequestConfirmed && st != RequestRejected {
		return "", ErrValidationMeta("invalid moderation status", map[string]string{
			"status": "must be one of: CONFIRMED, REJECTED",
		})
	}
	return st, nil
}

type ParticipationRequest struct {
	ID          int64
	EventID     int64
	RequesterID int64
	Created     time.Time
	Status      RequestStatus
}

func NewRequest(eventID, requesterID int64, status RequestStatus, now time.Time) *ParticipationRequest {
	return &ParticipationRequest{
		EventID:     eventID,
		RequesterID: requesterID,
		Created:     TruncateSecond(now),
		Status:      status,
	}
}

// Cancel is the requester's own withdrawal; it is allowed from any status.
func (r *ParticipationRequest) Cancel() {
	r.Status = RequestCanceled
}
