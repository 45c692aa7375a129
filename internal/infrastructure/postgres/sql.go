package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `
	e.id, e.initiator_id, e.category_id, e.location_id, l.lat, l.lon,
	e.annotation, e.description, e.title, e.event_date,
	e.paid, e.participant_limit, e.request_moderation,
	e.state, e.created_on, e.published_on`

const eventFrom = `
	FROM events e
	JOIN locations l ON l.id = e.location_id`

const requestColumns = `id, event_id, requester_id, created, status`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e     domain.Event
		state string
		pub   *time.Time
	)
	err := row.Scan(
		&e.ID, &e.InitiatorID, &e.CategoryID, &e.LocationID, &e.Location.Lat, &e.Location.Lon,
		&e.Annotation, &e.Description, &e.Title, &e.EventDate,
		&e.Paid, &e.ParticipantLimit, &e.RequestModeration,
		&state, &e.CreatedOn, &pub,
	)
	if err != nil {
		return nil, err
	}
	e.State = domain.EventState(state)
	e.EventDate = e.EventDate.UTC()
	e.CreatedOn = e.CreatedOn.UTC()
	if pub != nil {
		p := pub.UTC()
		e.PublishedOn = &p
	}
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (domain.ParticipationRequest, error) {
	var (
		r      domain.ParticipationRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.RequesterID, &r.Created, &status); err != nil {
		return r, err
	}
	r.Status = domain.RequestStatus(status)
	r.Created = r.Created.UTC()
	return r, nil
}

func scanRequests(rows pgx.Rows) ([]domain.ParticipationRequest, error) {
	defer rows.Close()
	var out []domain.ParticipationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// whereBuilder accumulates positional predicates.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, vals ...any) {
	for _, v := range vals {
		w.args = append(w.args, v)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// escapeLike makes user text literal inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func buildEventQuery(f event.ListFilter, offset, limit int) (string, []any) {
	var w whereBuilder
	if len(f.Initiators) > 0 {
		w.add("e.initiator_id = ANY(?)", f.Initiators)
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		w.add("e.state = ANY(?)", states)
	}
	if len(f.Categories) > 0 {
		w.add("e.category_id = ANY(?)", f.Categories)
	}
	if f.Paid != nil {
		w.add("e.paid = ?", *f.Paid)
	}
	if f.RangeStart != nil {
		w.add("e.event_date >= ?", *f.RangeStart)
	}
	if f.RangeEnd != nil {
		w.add("e.event_date <= ?", *f.RangeEnd)
	}
	if f.Text != "" {
		pat := "%" + escapeLike(f.Text) + "%"
		w.add("(e.annotation ILIKE ? OR e.description ILIKE ? OR e.title ILIKE ?)", pat, pat, pat)
	}

	q := "SELECT" + eventColumns + eventFrom + w.sql() + " ORDER BY e.event_date ASC, e.id ASC"
	args := w.args
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return q, args
}
