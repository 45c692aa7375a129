package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RKEventPublished   = "event.published"
	RKEventCanceled    = "event.canceled"
	RKRequestCreated   = "request.created"
	RKRequestModerated = "request.moderated"
	RKRequestCanceled  = "request.canceled"
)

// OutboxMessage is appended in the same transaction as the change it describes
// and relayed to the broker later.
type OutboxMessage struct {
	MessageID  uuid.UUID
	TraceID    string
	RoutingKey string
	Payload    []byte
	OccurredAt time.Time
}

type EventStateChanged struct {
	EventID    int64  `json:"event_id"`
	Action     string `json:"action"`
	State      string `json:"state"`
	OccurredAt string `json:"occurred_at"`
}

type RequestsChanged struct {
	EventID    int64   `json:"event_id"`
	Status     string  `json:"status"`
	RequestIDs []int64 `json:"request_ids"`
	OccurredAt string  `json:"occurred_at"`
}

func NewOutboxMessage(traceID, routingKey string, payload any, now time.Time) (OutboxMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}
	return OutboxMessage{
		MessageID:  uuid.New(),
		TraceID:    traceID,
		RoutingKey: routingKey,
		Payload:    b,
		OccurredAt: now.UTC(),
	}, nil
}
