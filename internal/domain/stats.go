package domain

import "time"

// Hit is one recorded view of a URI.
type Hit struct {
	App       string
	URI       string
	IP        string
	Timestamp time.Time
}

// ViewQuery asks the stats collector for per-URI view counts.
type ViewQuery struct {
	URIs   []string
	Start  time.Time
	End    time.Time
	Unique bool
}

// All-time window used for view counts.
var (
	StatsWindowStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	StatsWindowEnd   = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)
