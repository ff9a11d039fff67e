// Package clock provides the interpreter's real time clock: a time source
// plus a settable offset so the machine's clock can be adjusted without
// touching the host's.
package clock

import "time"

// TimeSource provides the current time, usually time.Now. Tests supply a
// fixed source for deterministic output.
type TimeSource func() time.Time

// Clock is the machine's wall clock.
type Clock struct {
	source TimeSource
	offset time.Duration
}

// New returns a clock backed by source.
func New(source TimeSource) *Clock {
	return &Clock{source: source}
}

// Now returns the machine's current time.
func (c *Clock) Now() time.Time {
	return c.source().Add(c.offset)
}

// Set adjusts the clock so Now reports t, without modifying the source.
func (c *Clock) Set(t time.Time) {
	c.offset = t.Sub(c.source())
}

// Time formats the clock as HH:MM:SS.
func (c *Clock) Time() string {
	return c.Now().Format("15:04:05")
}

// Date formats the clock as a short date, e.g. "Mon, 2 Jan".
func (c *Clock) Date() string {
	return c.Now().Format("Mon, 2 Jan")
}

// Year returns the four digit year.
func (c *Clock) Year() string {
	return c.Now().Format("2006")
}

// DateTime formats the full timestamp shown by the TIME command.
func (c *Clock) DateTime() string {
	return c.Now().Format("Mon, 2 Jan 2006 15:04:05")
}
