package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// -------------------------
// Deadlock policy:
// Every writer of an event locks in this order:
//   1) events row (FOR UPDATE OF e)
//   2) participation_requests rows of that event, ascending id (FOR UPDATE)
// Inserts of new requests happen only while (1) is held.
// -------------------------

// WithTx runs fn in a single READ COMMITTED transaction. The event row lock
// taken by GetEventForUpdate is what serializes capacity decisions.
func (r *Repository) WithTx(ctx context.Context, fn func(tx event.TxRepo) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, "SELECT"+eventColumns+eventFrom+" WHERE e.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return e, err
}

func (r *Repository) ListEvents(ctx context.Context, f event.ListFilter, offset, limit int) ([]*domain.Event, error) {
	q, args := buildEventQuery(f, offset, limit)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *Repository) ListByInitiator(ctx context.Context, initiatorID int64, offset, limit int) ([]*domain.Event, error) {
	q := "SELECT" + eventColumns + eventFrom + " WHERE e.initiator_id = $1 ORDER BY e.id ASC"
	args := []any{initiatorID}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *Repository) ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, COUNT(*)
		FROM participation_requests
		WHERE event_id = ANY($1) AND status = 'CONFIRMED'
		GROUP BY event_id
	`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *Repository) GetRequest(ctx context.Context, id int64) (*domain.ParticipationRequest, error) {
	pr, err := scanRequest(r.pool.QueryRow(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("request not found")
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *Repository) ListRequestsByEvent(ctx context.Context, eventID int64) ([]domain.ParticipationRequest, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE event_id = $1 ORDER BY id ASC", eventID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (r *Repository) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]domain.ParticipationRequest, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE requester_id = $1 ORDER BY id ASC", requesterID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

// --- reference data ---

func (r *Repository) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, domain.ErrNotFound("category not found")
	}
	return c, err
}

func (r *Repository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, domain.ErrNotFound("user not found")
	}
	return u, err
}

func (r *Repository) SaveLocation(ctx context.Context, loc domain.Location) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO locations (lat, lon) VALUES ($1, $2) RETURNING id`, loc.Lat, loc.Lon).Scan(&id)
	return id, err
}

// CreateCategory and CreateUser seed reference data owned by other services.
func (r *Repository) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	c := domain.Category{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	return c, mapUnique(err, "category already exists")
}

func (r *Repository) CreateUser(ctx context.Context, name, email string) (domain.User, error) {
	u := domain.User{Name: name, Email: email}
	err := r.pool.QueryRow(ctx, `INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`, name, email).Scan(&u.ID)
	return u, mapUnique(err, "user already exists")
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func mapUnique(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrConflict(msg)
	}
	return err
}
