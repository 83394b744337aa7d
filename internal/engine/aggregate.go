package engine

import "github.com/sweeney/compare-engine/internal/model"

// aggregate applies N-out-of-M voting with vote-count hysteresis. A group
// that is off needs RequiredVotes+VotingHysteresis true votes to turn on;
// once on it stays on until the count drops below RequiredVotes. Between the
// two thresholds the latch is sticky.
func aggregate(g model.ComparisonGroup, trueCount int, latched bool) bool {
	if latched {
		return trueCount >= g.RequiredVotes
	}
	return trueCount >= g.RequiredVotes+g.VotingHysteresis
}

// combine merges the latched group results with the rule's group operator.
func combine(op model.GroupOperator, latches []bool) bool {
	switch op {
	case model.OperatorAnd:
		for _, l := range latches {
			if !l {
				return false
			}
		}
		return len(latches) > 0
	case model.OperatorOr:
		for _, l := range latches {
			if l {
				return true
			}
		}
		return false
	case model.OperatorXor:
		on := 0
		for _, l := range latches {
			if l {
				on++
			}
		}
		return on%2 == 1
	}
	return false
}
