package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
	appCtx "github.com/baechuer/real-time-ressys/services/participation-service/internal/pkg/context"
)

const (
	defaultAppName  = "ewm-main-service"
	defaultViewsTTL = 30 * time.Second
	hitTimeout      = 3 * time.Second
)

type Deps struct {
	Repo       EventRepo
	Categories CategoryLookup
	Users      UserLookup
	Locations  LocationStore
	Stats      StatsCollaborator // optional
	Cache      Cache             // optional
	Clock      Clock

	AppName  string
	ViewsTTL time.Duration
}

type Service struct {
	repo       EventRepo
	categories CategoryLookup
	users      UserLookup
	locations  LocationStore
	stats      StatsCollaborator
	cache      Cache
	clock      Clock

	appName  string
	viewsTTL time.Duration
}

func New(d Deps) *Service {
	if d.Repo == nil || d.Categories == nil || d.Users == nil || d.Locations == nil {
		panic("event.New: repo and lookups are required")
	}
	if d.Clock == nil {
		panic("event.New: nil clock")
	}
	if d.AppName == "" {
		d.AppName = defaultAppName
	}
	if d.ViewsTTL == 0 {
		d.ViewsTTL = defaultViewsTTL
	}
	return &Service{
		repo:       d.Repo,
		categories: d.Categories,
		users:      d.Users,
		locations:  d.Locations,
		stats:      d.Stats,
		cache:      d.Cache,
		clock:      d.Clock,
		appName:    d.AppName,
		viewsTTL:   d.ViewsTTL,
	}
}

// EventView is an event with its resolved references and read-side
// projections. ConfirmedRequests is derived from the ledger; Views comes from
// the stats collector and is 0 when it is unavailable.
type EventView struct {
	Event             domain.Event
	Category          domain.Category
	Initiator         domain.User
	ConfirmedRequests int
	Views             int64
}

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

func (s *Service) appendOutbox(ctx context.Context, tx TxRepo, routingKey string, payload any) error {
	msg, err := domain.NewOutboxMessage(appCtx.GetRequestID(ctx), routingKey, payload, s.now())
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, msg)
}

// recordHit reports a view to the stats collector without waiting for it.
func (s *Service) recordHit(ctx context.Context, uri, ip string) {
	if s.stats == nil {
		return
	}
	h := domain.Hit{App: s.appName, URI: uri, IP: ip, Timestamp: s.now()}
	go func() {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hitTimeout)
		defer cancel()
		if err := s.stats.RecordHit(hctx, h); err != nil {
			logger.WithCtx(ctx).Warn().
				Err(err).
				Str("component", "stats").
				Str("uri", uri).
				Msg("record hit failed")
		}
	}()
}
