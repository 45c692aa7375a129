package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/capacity"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// EventRepo is the store for events and participation requests. Reads outside
// WithTx see committed data only.
type EventRepo interface {
	WithTx(ctx context.Context, fn func(tx TxRepo) error) error

	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	// ListEvents returns events matching f ordered by event date, then id.
	// limit <= 0 means no limit.
	ListEvents(ctx context.Context, f ListFilter, offset, limit int) ([]*domain.Event, error)
	ListByInitiator(ctx context.Context, initiatorID int64, offset, limit int) ([]*domain.Event, error)
	ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int, error)

	GetRequest(ctx context.Context, id int64) (*domain.ParticipationRequest, error)
	ListRequestsByEvent(ctx context.Context, eventID int64) ([]domain.ParticipationRequest, error)
	ListRequestsByRequester(ctx context.Context, requesterID int64) ([]domain.ParticipationRequest, error)
}

// TxRepo is the unit-of-work view of the store. GetEventForUpdate serializes
// writers of the same event until the transaction ends; it must be the first
// lock taken.
type TxRepo interface {
	InsertEvent(ctx context.Context, e *domain.Event) error
	GetEventForUpdate(ctx context.Context, id int64) (*domain.Event, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error

	ActiveRequests(ctx context.Context, eventID int64) (capacity.Ledger, error)
	GetRequestsForUpdate(ctx context.Context, ids []int64) ([]domain.ParticipationRequest, error)
	InsertRequest(ctx context.Context, r *domain.ParticipationRequest) error
	UpdateRequestStatuses(ctx context.Context, rs []domain.ParticipationRequest) error

	AppendOutbox(ctx context.Context, m domain.OutboxMessage) error
}

type CategoryLookup interface {
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (domain.User, error)
}

type LocationStore interface {
	SaveLocation(ctx context.Context, loc domain.Location) (int64, error)
}

// StatsCollaborator is the external view counter. Errors are never fatal to
// the calling operation.
type StatsCollaborator interface {
	RecordHit(ctx context.Context, h domain.Hit) error
	ViewCounts(ctx context.Context, q domain.ViewQuery) (map[string]int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
