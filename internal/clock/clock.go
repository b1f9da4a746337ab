// Package clock provides a time source port so components that reason about
// "now" (cache TTLs, rate limits, schedule windows) can be pinned in tests.
package clock

import "time"

// Clock yields the current time.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Frozen is a test clock pinned to a fixed instant, advanced manually.
type Frozen struct {
	t time.Time
}

// NewFrozen returns a clock pinned at t.
func NewFrozen(t time.Time) *Frozen { return &Frozen{t: t} }

func (f *Frozen) Now() time.Time { return f.t }

// Advance moves the frozen clock forward by d.
func (f *Frozen) Advance(d time.Duration) { f.t = f.t.Add(d) }

// Set pins the clock at t.
func (f *Frozen) Set(t time.Time) { f.t = t }
