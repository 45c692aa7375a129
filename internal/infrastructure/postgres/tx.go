package postgres

import (
	"context"
	"errors"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/capacity"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertEvent(ctx context.Context, e *domain.Event) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO events (
			initiator_id, category_id, location_id,
			annotation, description, title, event_date,
			paid, participant_limit, request_moderation,
			state, created_on, published_on
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`,
		e.InitiatorID, e.CategoryID, e.LocationID,
		e.Annotation, e.Description, e.Title, e.EventDate,
		e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.CreatedOn, e.PublishedOn,
	).Scan(&e.ID)
}

func (t *txRepo) GetEventForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := scanEvent(t.tx.QueryRow(ctx,
		"SELECT"+eventColumns+eventFrom+" WHERE e.id = $1 FOR UPDATE OF e", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return e, err
}

func (t *txRepo) UpdateEvent(ctx context.Context, e *domain.Event) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE events SET
			category_id = $2,
			location_id = $3,
			annotation = $4,
			description = $5,
			title = $6,
			event_date = $7,
			paid = $8,
			participant_limit = $9,
			request_moderation = $10,
			state = $11,
			published_on = $12
		WHERE id = $1
	`,
		e.ID, e.CategoryID, e.LocationID,
		e.Annotation, e.Description, e.Title, e.EventDate,
		e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.PublishedOn,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

func (t *txRepo) ActiveRequests(ctx context.Context, eventID int64) (capacity.Ledger, error) {
	rows, err := t.tx.Query(ctx, "SELECT "+requestColumns+`
		FROM participation_requests
		WHERE event_id = $1 AND status <> 'CANCELED'
		ORDER BY id ASC
	`, eventID)
	if err != nil {
		return nil, err
	}
	rs, err := scanRequests(rows)
	return capacity.Ledger(rs), err
}

func (t *txRepo) GetRequestsForUpdate(ctx context.Context, ids []int64) ([]domain.ParticipationRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := t.tx.Query(ctx, "SELECT "+requestColumns+`
		FROM participation_requests
		WHERE id = ANY($1)
		ORDER BY id ASC
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (t *txRepo) InsertRequest(ctx context.Context, r *domain.ParticipationRequest) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO participation_requests (event_id, requester_id, created, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.EventID, r.RequesterID, r.Created, string(r.Status)).Scan(&r.ID)
	return mapUnique(err, "duplicate request")
}

func (t *txRepo) UpdateRequestStatuses(ctx context.Context, rs []domain.ParticipationRequest) error {
	if len(rs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rs {
		batch.Queue(`UPDATE participation_requests SET status = $2 WHERE id = $1`, r.ID, string(r.Status))
	}
	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()
	for range rs {
		tag, err := br.Exec()
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound("request not found")
		}
	}
	return nil
}

func (t *txRepo) AppendOutbox(ctx context.Context, m domain.OutboxMessage) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO outbox (message_id, trace_id, routing_key, payload, status, occurred_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)
	`, m.MessageID, m.TraceID, m.RoutingKey, m.Payload, m.OccurredAt)
	return err
}
