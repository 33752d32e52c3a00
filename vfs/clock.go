package vfs

import "github.com/jacobsa/timeutil"

// Clock is the wall clock the object lifecycle (§4.D) stamps creation,
// access, and modification times from. Aliased directly to the teacher's
// own injected clock dependency rather than redeclared, so tests can swap
// in a timeutil.SimulatedClock exactly as the teacher's ServerConfig.Clock
// does.
type Clock = timeutil.Clock

// DefaultClock returns the real wall clock.
func DefaultClock() Clock {
	return timeutil.RealClock()
}
