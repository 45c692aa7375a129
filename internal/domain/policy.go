package domain

import "time"

// Minimum distance between "now" and the event date for state-changing actions.
const (
	OwnerLeadTime = 2 * time.Hour
	AdminLeadTime = 1 * time.Hour
)

// Field bounds carried over from the public API contract.
const (
	AnnotationMin  = 20
	AnnotationMax  = 2000
	DescriptionMin = 20
	DescriptionMax = 7000
	TitleMin       = 3
	TitleMax       = 120
)
