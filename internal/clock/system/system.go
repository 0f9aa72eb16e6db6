// Package system provides the wall clock used by the crawl pipeline.
package system

import "time"

// Clock implements pipeline.Clock using the system wall clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time truncated to microseconds, matching
// the precision of the Postgres timestamptz columns records are stored
// in. Records round-trip through the store without losing precision.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
