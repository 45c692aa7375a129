package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
)

func cacheKeyViews(uri string) string {
	return "views:" + uri
}

// viewCounts returns unique all-time views per URI. Cache and stats failures
// are logged and the affected URIs count as 0.
func (s *Service) viewCounts(ctx context.Context, uris []string) map[string]int64 {
	out := make(map[string]int64, len(uris))
	if len(uris) == 0 {
		return out
	}

	missing := make([]string, 0, len(uris))
	for _, uri := range uris {
		if s.cache != nil {
			var n int64
			found, err := s.cache.Get(ctx, cacheKeyViews(uri), &n)
			if err != nil {
				logger.WithCtx(ctx).Warn().Err(err).Str("uri", uri).Msg("views cache get failed")
			} else if found {
				out[uri] = n
				continue
			}
		}
		missing = append(missing, uri)
	}
	if len(missing) == 0 || s.stats == nil {
		return out
	}

	counts, err := s.stats.ViewCounts(ctx, domain.ViewQuery{
		URIs:   missing,
		Start:  domain.StatsWindowStart,
		End:    domain.StatsWindowEnd,
		Unique: true,
	})
	if err != nil {
		logger.WithCtx(ctx).Warn().
			Err(err).
			Str("component", "stats").
			Int("uris", len(missing)).
			Msg("view counts unavailable, defaulting to 0")
		return out
	}

	for _, uri := range missing {
		n := counts[uri]
		out[uri] = n
		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKeyViews(uri), n, s.viewsTTL); err != nil {
				logger.WithCtx(ctx).Warn().Err(err).Str("uri", uri).Msg("views cache set failed")
			}
		}
	}
	return out
}

// enrich resolves references and read-side projections for evs, keeping order.
func (s *Service) enrich(ctx context.Context, evs []*domain.Event) ([]EventView, error) {
	if len(evs) == 0 {
		return []EventView{}, nil
	}

	ids := make([]int64, 0, len(evs))
	uris := make([]string, 0, len(evs))
	for _, e := range evs {
		ids = append(ids, e.ID)
		uris = append(uris, e.URI())
	}
	confirmed, err := s.repo.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := s.viewCounts(ctx, uris)

	categories := map[int64]domain.Category{}
	users := map[int64]domain.User{}
	out := make([]EventView, 0, len(evs))
	for _, e := range evs {
		cat, ok := categories[e.CategoryID]
		if !ok {
			if cat, err = s.categories.GetCategory(ctx, e.CategoryID); err != nil {
				return nil, err
			}
			categories[e.CategoryID] = cat
		}
		u, ok := users[e.InitiatorID]
		if !ok {
			if u, err = s.users.GetUser(ctx, e.InitiatorID); err != nil {
				return nil, err
			}
			users[e.InitiatorID] = u
		}
		out = append(out, EventView{
			Event:             *e,
			Category:          cat,
			Initiator:         u,
			ConfirmedRequests: confirmed[e.ID],
			Views:             views[e.URI()],
		})
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, ev *domain.Event) (*EventView, error) {
	vs, err := s.enrich(ctx, []*domain.Event{ev})
	if err != nil {
		return nil, err
	}
	return &vs[0], nil
}
