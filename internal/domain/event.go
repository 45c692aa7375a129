package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Location struct {
	Lat float64
	Lon float64
}

func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 || l.Lon < -180 || l.Lon > 180 {
		return ErrValidationMeta("invalid location", map[string]string{
			"location": "lat must be within [-90,90] and lon within [-180,180]",
		})
	}
	return nil
}

type Event struct {
	ID          int64
	InitiatorID int64
	CategoryID  int64
	LocationID  int64
	Location    Location

	Annotation  string
	Description string
	Title       string
	EventDate   time.Time

	Paid              bool
	ParticipantLimit  int // 0 = unlimited
	RequestModeration bool

	State       EventState
	CreatedOn   time.Time
	PublishedOn *time.Time
}

// Draft is the input for a new event. Nil optional fields take the defaults:
// paid=false, participantLimit=0, requestModeration=true.
type Draft struct {
	Annotation        string
	Description       string
	Title             string
	CategoryID        int64
	Location          Location
	EventDate         time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

// Patch is a sparse update: nil fields are left untouched.
type Patch struct {
	Annotation        *string
	Description       *string
	Title             *string
	CategoryID        *int64
	Location          *Location
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	StateAction       *StateAction
}

// HasFieldChanges reports whether the patch touches anything besides the action.
func (p Patch) HasFieldChanges() bool {
	return p.Annotation != nil || p.Description != nil || p.Title != nil ||
		p.CategoryID != nil || p.Location != nil || p.EventDate != nil ||
		p.Paid != nil || p.ParticipantLimit != nil || p.RequestModeration != nil
}

func NewEvent(initiatorID int64, d Draft, now time.Time) (*Event, error) {
	if initiatorID <= 0 {
		return nil, ErrValidation("initiator is required")
	}
	if d.CategoryID <= 0 {
		return nil, ErrValidation("category is required")
	}
	annotation, err := cleanText("annotation", d.Annotation, AnnotationMin, AnnotationMax)
	if err != nil {
		return nil, err
	}
	description, err := cleanText("description", d.Description, DescriptionMin, DescriptionMax)
	if err != nil {
		return nil, err
	}
	title, err := cleanText("title", d.Title, TitleMin, TitleMax)
	if err != nil {
		return nil, err
	}
	if err := d.Location.Validate(); err != nil {
		return nil, err
	}
	if d.EventDate.IsZero() {
		return nil, ErrValidation("eventDate is required")
	}

	e := &Event{
		InitiatorID:       initiatorID,
		CategoryID:        d.CategoryID,
		Location:          d.Location,
		Annotation:        annotation,
		Description:       description,
		Title:             title,
		EventDate:         TruncateSecond(d.EventDate),
		RequestModeration: true,
		State:             StatePending,
		CreatedOn:         TruncateSecond(now),
	}
	if d.Paid != nil {
		e.Paid = *d.Paid
	}
	if d.RequestModeration != nil {
		e.RequestModeration = *d.RequestModeration
	}
	if d.ParticipantLimit != nil {
		if *d.ParticipantLimit < 0 {
			return nil, ErrValidation("participantLimit must be >= 0 (0 means unlimited)")
		}
		e.ParticipantLimit = *d.ParticipantLimit
	}
	if err := e.EnsureLeadTime(now, OwnerLeadTime); err != nil {
		return nil, err
	}
	return e, nil
}

// EnsureLeadTime fails unless the event date is at least lead after now.
func (e *Event) EnsureLeadTime(now time.Time, lead time.Duration) error {
	if e.EventDate.Before(now.Add(lead)) {
		return ErrValidationMeta("event date is too soon", map[string]string{
			"eventDate": FormatTime(e.EventDate),
			"earliest":  FormatTime(now.Add(lead)),
		})
	}
	return nil
}

// CheckOwnerEditable allows owner edits only while the event is not published.
func (e *Event) CheckOwnerEditable() error {
	if e.State == StatePending || e.State == StateCanceled {
		return nil
	}
	return ErrConflict("only pending or canceled events can be changed")
}

// ApplyPatch copies the non-nil fields onto the event. It validates values but
// leaves state and date-window rules to the caller.
func (e *Event) ApplyPatch(p Patch) error {
	if p.Annotation != nil {
		v, err := cleanText("annotation", *p.Annotation, AnnotationMin, AnnotationMax)
		if err != nil {
			return err
		}
		e.Annotation = v
	}
	if p.Description != nil {
		v, err := cleanText("description", *p.Description, DescriptionMin, DescriptionMax)
		if err != nil {
			return err
		}
		e.Description = v
	}
	if p.Title != nil {
		v, err := cleanText("title", *p.Title, TitleMin, TitleMax)
		if err != nil {
			return err
		}
		e.Title = v
	}
	if p.CategoryID != nil {
		if *p.CategoryID <= 0 {
			return ErrValidation("category must be positive")
		}
		e.CategoryID = *p.CategoryID
	}
	if p.Location != nil {
		if err := p.Location.Validate(); err != nil {
			return err
		}
		e.Location = *p.Location
	}
	if p.EventDate != nil {
		if p.EventDate.IsZero() {
			return ErrValidation("eventDate must be set")
		}
		e.EventDate = TruncateSecond(*p.EventDate)
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		if *p.ParticipantLimit < 0 {
			return ErrValidation("participantLimit must be >= 0 (0 means unlimited)")
		}
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
	return nil
}

// Transition applies a lifecycle command.
//
//	SEND_TO_REVIEW          PENDING|CANCELED -> PENDING
//	CANCEL_REVIEW           PENDING          -> CANCELED
//	REJECT_EVENT            PENDING          -> CANCELED
//	PUBLISH_EVENT           PENDING          -> PUBLISHED (eventDate >= now+1h)
func (e *Event) Transition(a StateAction, now time.Time) error {
	switch a {
	case ActionSendToReview:
		if e.State == StatePublished {
			return ErrConflict("published event cannot be sent to review")
		}
		e.State = StatePending
	case ActionCancelReview, ActionRejectEvent:
		if e.State == StatePublished {
			return ErrConflict("published event cannot be canceled")
		}
		if e.State == StateCanceled {
			return ErrConflict("event is already canceled")
		}
		e.State = StateCanceled
	case ActionPublishEvent:
		if e.State != StatePending {
			return ErrConflict("only pending events can be published")
		}
		if err := e.EnsureLeadTime(now, AdminLeadTime); err != nil {
			return err
		}
		t := TruncateSecond(now)
		e.State = StatePublished
		e.PublishedOn = &t
	default:
		return ErrValidationMeta("unknown state action", map[string]string{"state_action": string(a)})
	}
	return nil
}

// URI is the path the stats collector knows this event by.
func (e *Event) URI() string {
	return EventURI(e.ID)
}

func cleanText(field, v string, min, max int) (string, error) {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n < min || n > max {
		return "", ErrValidationMeta("invalid field length", map[string]string{
			field: lengthRule(min, max),
		})
	}
	return v, nil
}
