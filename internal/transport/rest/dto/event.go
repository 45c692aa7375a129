package dto

import (
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type Location struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" validate:"required,min=-180,max=180"`
}

func (l Location) toDomain() domain.Location {
	return domain.Location{Lat: *l.Lat, Lon: *l.Lon}
}

type NewEventRequest struct {
	Annotation        string    `json:"annotation" validate:"required,min=20,max=2000"`
	Category          int64     `json:"category" validate:"required,gt=0"`
	Description       string    `json:"description" validate:"required,min=20,max=7000"`
	EventDate         *Time     `json:"eventDate" validate:"required"`
	Location          *Location `json:"location" validate:"required"`
	Paid              *bool     `json:"paid"`
	ParticipantLimit  *int      `json:"participantLimit" validate:"omitempty,min=0"`
	RequestModeration *bool     `json:"requestModeration"`
	Title             string    `json:"title" validate:"required,min=3,max=120"`
}

func (r NewEventRequest) ToDraft() domain.Draft {
	return domain.Draft{
		Annotation:        r.Annotation,
		Description:       r.Description,
		Title:             r.Title,
		CategoryID:        r.Category,
		Location:          r.Location.toDomain(),
		EventDate:         r.EventDate.Time,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
	}
}

// UpdateEventRequest is shared by the owner and admin paths; the allowed
// stateAction values differ and are checked by the service.
type UpdateEventRequest struct {
	Annotation        *string   `json:"annotation" validate:"omitempty,min=20,max=2000"`
	Category          *int64    `json:"category" validate:"omitempty,gt=0"`
	Description       *string   `json:"description" validate:"omitempty,min=20,max=7000"`
	EventDate         *Time     `json:"eventDate"`
	Location          *Location `json:"location"`
	Paid              *bool     `json:"paid"`
	ParticipantLimit  *int      `json:"participantLimit" validate:"omitempty,min=0"`
	RequestModeration *bool     `json:"requestModeration"`
	StateAction       *string   `json:"stateAction"`
	Title             *string   `json:"title" validate:"omitempty,min=3,max=120"`
}

func (r UpdateEventRequest) ToPatch() (domain.Patch, error) {
	p := domain.Patch{
		Annotation:        r.Annotation,
		Description:       r.Description,
		Title:             r.Title,
		CategoryID:        r.Category,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
	}
	if r.EventDate != nil && !r.EventDate.IsZero() {
		t := r.EventDate.Time
		p.EventDate = &t
	}
	if r.Location != nil {
		loc := r.Location.toDomain()
		p.Location = &loc
	}
	if r.StateAction != nil {
		a, err := domain.ParseStateAction(*r.StateAction)
		if err != nil {
			return domain.Patch{}, err
		}
		p.StateAction = &a
	}
	return p, nil
}

type TransitionRequest struct {
	StateAction string `json:"stateAction" validate:"required"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type LocationView struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type EventFull struct {
	ID                int64        `json:"id"`
	Annotation        string       `json:"annotation"`
	Category          Category     `json:"category"`
	ConfirmedRequests int          `json:"confirmedRequests"`
	CreatedOn         Time         `json:"createdOn"`
	Description       string       `json:"description"`
	EventDate         Time         `json:"eventDate"`
	Initiator         UserShort    `json:"initiator"`
	Location          LocationView `json:"location"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit"`
	PublishedOn       *Time        `json:"publishedOn"`
	RequestModeration bool         `json:"requestModeration"`
	State             string       `json:"state"`
	Title             string       `json:"title"`
	Views             int64        `json:"views"`
}

type EventShort struct {
	ID                int64     `json:"id"`
	Annotation        string    `json:"annotation"`
	Category          Category  `json:"category"`
	ConfirmedRequests int       `json:"confirmedRequests"`
	EventDate         Time      `json:"eventDate"`
	Initiator         UserShort `json:"initiator"`
	Paid              bool      `json:"paid"`
	Title             string    `json:"title"`
	Views             int64     `json:"views"`
}

func ToEventFull(v *event.EventView) EventFull {
	e := v.Event
	return EventFull{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          Category{ID: v.Category.ID, Name: v.Category.Name},
		ConfirmedRequests: v.ConfirmedRequests,
		CreatedOn:         NewTime(e.CreatedOn),
		Description:       e.Description,
		EventDate:         NewTime(e.EventDate),
		Initiator:         UserShort{ID: v.Initiator.ID, Name: v.Initiator.Name},
		Location:          LocationView{Lat: e.Location.Lat, Lon: e.Location.Lon},
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		PublishedOn:       timePtr(e.PublishedOn),
		RequestModeration: e.RequestModeration,
		State:             string(e.State),
		Title:             e.Title,
		Views:             v.Views,
	}
}

func ToEventFulls(vs []event.EventView) []EventFull {
	out := make([]EventFull, len(vs))
	for i := range vs {
		out[i] = ToEventFull(&vs[i])
	}
	return out
}

func ToEventShorts(vs []event.EventView) []EventShort {
	out := make([]EventShort, len(vs))
	for i, v := range vs {
		out[i] = EventShort{
			ID:                v.Event.ID,
			Annotation:        v.Event.Annotation,
			Category:          Category{ID: v.Category.ID, Name: v.Category.Name},
			ConfirmedRequests: v.ConfirmedRequests,
			EventDate:         NewTime(v.Event.EventDate),
			Initiator:         UserShort{ID: v.Initiator.ID, Name: v.Initiator.Name},
			Paid:              v.Event.Paid,
			Title:             v.Event.Title,
			Views:             v.Views,
		}
	}
	return out
}
