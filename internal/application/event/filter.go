package event

import (
	"slices"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

type SortOrder string

const (
	SortNone      SortOrder = ""
	SortEventDate SortOrder = "EVENT_DATE"
	SortViews     SortOrder = "VIEWS"
)

func ParseSort(s string) (SortOrder, error) {
	switch so := SortOrder(strings.ToUpper(strings.TrimSpace(s))); so {
	case SortNone, SortEventDate, SortViews:
		return so, nil
	}
	return "", domain.ErrValidationMeta("invalid query param", map[string]string{
		"sort": "must be one of: EVENT_DATE, VIEWS",
	})
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListFilter is a conjunction of optional predicates. Empty slices and nil
// pointers mean "no constraint".
type ListFilter struct {
	Initiators    []int64
	States        []domain.EventState
	Categories    []int64
	Text          string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool

	Sort SortOrder
	From int
	Size int
}

func (f *ListFilter) normalize() error {
	f.Text = strings.TrimSpace(f.Text)
	if f.From < 0 {
		return domain.ErrValidationMeta("invalid query param", map[string]string{"from": "must be >= 0"})
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeEnd.Before(*f.RangeStart) {
		return domain.ErrValidationMeta("invalid date range", map[string]string{
			"rangeEnd": "must not be before rangeStart",
		})
	}
	for _, st := range f.States {
		if !st.Valid() {
			return domain.ErrValidationMeta("unknown event state", map[string]string{"state": string(st)})
		}
	}
	return nil
}

// Matches evaluates every predicate except OnlyAvailable, which depends on the
// ledger.
func (f ListFilter) Matches(e *domain.Event) bool {
	if len(f.Initiators) > 0 && !slices.Contains(f.Initiators, e.InitiatorID) {
		return false
	}
	if len(f.States) > 0 && !slices.Contains(f.States, e.State) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, e.CategoryID) {
		return false
	}
	if f.Paid != nil && e.Paid != *f.Paid {
		return false
	}
	if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
		return false
	}
	if f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd) {
		return false
	}
	if f.Text != "" {
		q := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(e.Annotation), q) &&
			!strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(e.Title), q) {
			return false
		}
	}
	return true
}
