package postgres

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/metrics"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	outboxBatchSize   = 20
	outboxMaxAttempts = 12
	outboxInFlight    = 15 * time.Second
	confirmWait       = 600 * time.Millisecond
)

// RelayConfig controls the outbox relay. Zero values take defaults.
type RelayConfig struct {
	RabbitURL    string
	Exchange     string
	AppID        string
	PollInterval time.Duration
}

// outboxRow is a claimed outbox message.
type outboxRow struct {
	ID         uuid.UUID
	MessageID  uuid.UUID
	TraceID    string
	RoutingKey string
	Payload    []byte
	Attempt    int
}

// computeNextRetry is 2^attempt seconds clamped to [5s, 30m], +/-10% jitter.
func computeNextRetry(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	sec := math.Min(math.Max(math.Pow(2, float64(attempt)), 5), 1800)
	d := time.Duration(sec) * time.Second

	j := time.Duration(rand.Int63n(int64(d/5))) - d/10
	return d + j
}

// StartOutboxRelay publishes pending outbox rows to a topic exchange until ctx
// is done. Delivery is at-least-once; consumers dedupe on MessageId.
func (r *Repository) StartOutboxRelay(ctx context.Context, cfg RelayConfig) {
	if cfg.AppID == "" {
		cfg.AppID = "participation-service"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	go func() {
		log := logger.Logger.With().Str("component", "outbox_relay").Logger()

		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Error().Err(err).Msg("rabbitmq dial failed; outbox relay disabled")
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			log.Error().Err(err).Msg("rabbitmq channel failed; outbox relay disabled")
			return
		}
		defer ch.Close()

		if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
			log.Error().Err(err).Str("exchange", cfg.Exchange).Msg("exchange declare failed")
			return
		}
		if err := ch.Confirm(false); err != nil {
			log.Error().Err(err).Msg("publisher confirms unavailable")
			return
		}

		p := &relayPublisher{
			ch:       ch,
			cfg:      cfg,
			confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 100)),
			returns:  ch.NotifyReturn(make(chan amqp.Return, 100)),
		}

		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		var lastErr string
		var lastAt time.Time
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				err := r.relayBatch(ctx, p, &log)
				if err == nil {
					lastErr = ""
					continue
				}
				if err.Error() != lastErr || time.Since(lastAt) > 10*time.Second {
					log.Warn().Err(err).Msg("outbox batch failed")
					lastErr, lastAt = err.Error(), time.Now()
				}
			}
		}
	}()
}

// claimBatch moves due rows' next_retry_at forward so concurrent relays skip
// them while this one publishes outside the transaction.
func (r *Repository) claimBatch(ctx context.Context) ([]outboxRow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, message_id, trace_id, routing_key, payload, attempt
		FROM outbox
		WHERE status = 'pending'
		  AND next_retry_at <= NOW()
		ORDER BY next_retry_at ASC, occurred_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, outboxBatchSize)
	if err != nil {
		return nil, err
	}

	var claimed []outboxRow
	for rows.Next() {
		var m outboxRow
		if err := rows.Scan(&m.ID, &m.MessageID, &m.TraceID, &m.RoutingKey, &m.Payload, &m.Attempt); err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(claimed) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]uuid.UUID, len(claimed))
	for i, m := range claimed {
		ids[i] = m.ID
	}
	if _, err := tx.Exec(ctx, `UPDATE outbox SET next_retry_at = $2 WHERE id = ANY($1)`,
		ids, time.Now().Add(outboxInFlight)); err != nil {
		return nil, err
	}
	return claimed, tx.Commit(ctx)
}

func (r *Repository) relayBatch(ctx context.Context, p *relayPublisher, log *zerolog.Logger) error {
	claimed, err := r.claimBatch(ctx)
	if err != nil {
		return err
	}
	for _, m := range claimed {
		if err := p.publish(ctx, m); err != nil {
			r.failOutbox(ctx, m, err.Error(), log)
			continue
		}
		if _, err := r.pool.Exec(ctx, `UPDATE outbox SET status = 'sent', last_error = NULL WHERE id = $1`, m.ID); err != nil {
			log.Warn().Err(err).Str("outbox_id", m.ID.String()).Msg("mark sent failed; row will be republished")
			continue
		}
		metrics.RecordOutbox("sent")
		log.Debug().
			Str("message_id", m.MessageID.String()).
			Str("routing_key", m.RoutingKey).
			Msg("published")
	}
	return nil
}

func (r *Repository) failOutbox(ctx context.Context, m outboxRow, reason string, log *zerolog.Logger) {
	next := m.Attempt + 1
	if next >= outboxMaxAttempts {
		_, _ = r.pool.Exec(ctx, `
			UPDATE outbox SET status = 'dead', attempt = $2, last_error = $3 WHERE id = $1
		`, m.ID, next, reason)
		metrics.RecordOutbox("dead")
		log.Error().
			Str("message_id", m.MessageID.String()).
			Str("routing_key", m.RoutingKey).
			Int("attempt", next).
			Str("reason", reason).
			Msg("outbox message moved to dead")
		return
	}

	delay := computeNextRetry(next)
	_, _ = r.pool.Exec(ctx, `
		UPDATE outbox
		SET attempt = $2,
		    next_retry_at = NOW() + $3::interval,
		    last_error = $4
		WHERE id = $1
	`, m.ID, next, fmt.Sprintf("%f seconds", delay.Seconds()), reason)
	metrics.RecordOutbox("retry")
	log.Warn().
		Str("message_id", m.MessageID.String()).
		Str("routing_key", m.RoutingKey).
		Int("attempt", next).
		Dur("retry_in", delay).
		Str("reason", reason).
		Msg("outbox publish failed; retry scheduled")
}

type relayPublisher struct {
	ch       *amqp.Channel
	cfg      RelayConfig
	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
}

// publish sends one mandatory, persistent message and waits for its confirm.
// A basic.return for the message arrives before its ack.
func (p *relayPublisher) publish(ctx context.Context, m outboxRow) error {
	p.drain()

	err := p.ch.PublishWithContext(ctx, p.cfg.Exchange, m.RoutingKey, true, false, amqp.Publishing{
		ContentType:   "application/json",
		Body:          m.Payload,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		MessageId:     m.MessageID.String(),
		CorrelationId: m.TraceID,
		AppId:         p.cfg.AppID,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	var returned *amqp.Return
	deadline := time.After(confirmWait)
	for {
		select {
		case ret := <-p.returns:
			returned = &ret
		case c := <-p.confirms:
			if returned != nil {
				return fmt.Errorf("NO_ROUTE: code=%d text=%s rk=%s", returned.ReplyCode, returned.ReplyText, returned.RoutingKey)
			}
			if !c.Ack {
				return fmt.Errorf("NACK: delivery_tag=%d", c.DeliveryTag)
			}
			return nil
		case <-deadline:
			return fmt.Errorf("confirm timeout")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *relayPublisher) drain() {
	for {
		select {
		case <-p.returns:
		case <-p.confirms:
		default:
			return
		}
	}
}
