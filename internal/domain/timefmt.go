package domain

import (
	"strings"
	"time"
)

// TimeLayout is the textual timestamp format shared with the stats collector
// and the public API: UTC, second precision.
const TimeLayout = "2006-01-02 15:04:05"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrValidationMeta("invalid timestamp", map[string]string{
			"value":  s,
			"format": "yyyy-MM-dd HH:mm:ss",
		})
	}
	return t, nil
}

// TruncateSecond drops sub-second precision so stored and serialized values agree.
func TruncateSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
