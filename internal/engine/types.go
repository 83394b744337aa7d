// Package engine evaluates Comparison Memory rules. It is pure business
// logic: no point store, no scheduler, no time.Sleep. Time is always
// injectable via time.Time parameters, and point readings are supplied by the
// caller through a ReadFunc.
package engine

import "time"

// Latch is the on/off state a group carries from one tick to the next.
type Latch string

const (
	LatchOn  Latch = "ON"
	LatchOff Latch = "OFF"
)

// ReadFunc returns the current value of a point and whether the reading is
// usable. A false ok means the point is unavailable (missing, stale or the
// read timed out) and the input votes false.
type ReadFunc func(pointID string) (float64, bool)

// GroupState is the runtime state of one comparison group: its latched
// result and the previous vote of each input, which the threshold
// hysteresis needs.
type GroupState struct {
	Latched   bool
	PrevVotes map[string]bool
}

// GroupResult describes one group's contribution to a tick.
type GroupResult struct {
	GroupID     string
	TrueVotes   int
	Inputs      int
	Unavailable int
	Latched     bool
}

// Result is the outcome of a single evaluation tick.
type Result struct {
	// Skipped is true when the rule is disabled; nothing else is set.
	Skipped bool

	// Candidate is the combined, inversion-applied value this tick.
	Candidate bool
	// HeldFor is how long the candidate has been continuously observed.
	HeldFor time.Duration

	// Commit is true when Output should be written to the output point.
	Commit bool
	// Output is the value to write when Commit is set.
	Output bool

	// Unavailable is the total number of inputs that could not be read.
	Unavailable int
	Groups      []GroupResult
}
