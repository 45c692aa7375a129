package dto

import (
	"encoding/json"
	"time"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

// Time is a UTC timestamp serialized as "yyyy-MM-dd HH:mm:ss".
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time { return Time{Time: t.UTC()} }

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(domain.FormatTime(t.Time))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.ErrValidationMeta("invalid timestamp", map[string]string{"format": "yyyy-MM-dd HH:mm:ss"})
	}
	parsed, err := domain.ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func timePtr(t *time.Time) *Time {
	if t == nil {
		return nil
	}
	v := NewTime(*t)
	return &v
}
