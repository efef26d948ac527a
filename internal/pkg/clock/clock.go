// Package clock is the single source of "now" for notification timestamps.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// System reads the wall clock and reports it in UTC.
type System struct{}

func New() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
