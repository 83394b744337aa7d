package engine

import (
	"math"

	"github.com/sweeney/compare-engine/internal/model"
)

// equalityEpsilon is the tolerance for EQUAL / NOT_EQUAL comparisons.
// Analog readings are floats; exact equality would be meaningless.
const equalityEpsilon = 1e-9

// voteInput converts one input point's value into a boolean vote. prev is the
// input's previous vote, which analog hysteresis needs to decide which side
// of the deadband applies.
//
// The hysteresis band always widens in the opposite direction of the active
// state: a false vote must exceed the raw condition by more than the
// hysteresis to become true, and a true vote must fail it by more than the
// hysteresis to become false. Inside the band the previous vote holds.
func voteInput(g model.ComparisonGroup, value float64, prev bool) bool {
	if g.Mode == model.ModeDigital {
		return (value != 0) == (g.DigitalValue == model.DigitalOn)
	}
	return voteAnalog(g, value, prev)
}

func voteAnalog(g model.ComparisonGroup, value float64, prev bool) bool {
	t1 := 0.0
	if g.Threshold1 != nil {
		t1 = *g.Threshold1
	}
	h := g.ThresholdHysteresis

	switch g.CompareType {
	case model.CompareHigher:
		if prev {
			return !(value < t1-h)
		}
		return value > t1+h

	case model.CompareLower:
		if prev {
			return !(value > t1+h)
		}
		return value < t1-h

	case model.CompareBetween:
		t2 := t1
		if g.Threshold2 != nil {
			t2 = *g.Threshold2
		}
		if prev {
			return !(value < t1-h || value > t2+h)
		}
		return value >= t1+h && value <= t2-h

	case model.CompareEqual:
		if prev {
			return math.Abs(value-t1) <= equalityEpsilon+h
		}
		return math.Abs(value-t1) <= equalityEpsilon

	case model.CompareNotEqual:
		if prev {
			return math.Abs(value-t1) > equalityEpsilon
		}
		return math.Abs(value-t1) > equalityEpsilon+h
	}

	return false
}
