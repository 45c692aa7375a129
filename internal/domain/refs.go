package domain

import (
	"fmt"
	"strconv"
)

type Category struct {
	ID   int64
	Name string
}

type User struct {
	ID    int64
	Name  string
	Email string
}

// EventsURI is the path recorded for public listings.
const EventsURI = "/events"

func EventURI(id int64) string {
	return EventsURI + "/" + strconv.FormatInt(id, 10)
}

func lengthRule(min, max int) string {
	return fmt.Sprintf("must be between %d and %d characters", min, max)
}
