package engine

import (
	"testing"

	"github.com/sweeney/compare-engine/internal/model"
)

func TestVoteCountHysteresis(t *testing.T) {
	// 3-of-5 voting with one vote of hysteresis: turn on at 4, off below 3.
	g := model.ComparisonGroup{
		InputItemIDs:     []string{"a", "b", "c", "d", "e"},
		RequiredVotes:    3,
		VotingHysteresis: 1,
	}

	cases := []struct {
		name    string
		count   int
		latched bool
		want    bool
	}{
		{"off stays off at required count", 3, false, false},
		{"off turns on at required+hysteresis", 4, false, true},
		{"off turns on above required+hysteresis", 5, false, true},
		{"on stays on at required count", 3, true, true},
		{"on turns off below required count", 2, true, false},
		{"on stays on at full count", 5, true, true},
		{"off stays off at zero", 0, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := aggregate(g, c.count, c.latched); got != c.want {
				t.Errorf("count=%d latched=%v: got %v, want %v", c.count, c.latched, got, c.want)
			}
		})
	}
}

func TestNoVotingHysteresis(t *testing.T) {
	g := model.ComparisonGroup{
		InputItemIDs:  []string{"a", "b", "c"},
		RequiredVotes: 2,
	}

	if aggregate(g, 1, false) {
		t.Error("1 of 2 required should stay off")
	}
	if !aggregate(g, 2, false) {
		t.Error("2 of 2 required should turn on")
	}
	if aggregate(g, 1, true) {
		t.Error("dropping below required should turn off")
	}
}

func TestCombine(t *testing.T) {
	cases := []struct {
		name    string
		op      model.GroupOperator
		latches []bool
		want    bool
	}{
		{"or true/false", model.OperatorOr, []bool{true, false}, true},
		{"or all false", model.OperatorOr, []bool{false, false}, false},
		{"and true/false", model.OperatorAnd, []bool{true, false}, false},
		{"and all true", model.OperatorAnd, []bool{true, true}, true},
		{"xor one true", model.OperatorXor, []bool{true, false}, true},
		{"xor even count of true", model.OperatorXor, []bool{true, true, false}, false},
		{"xor three true", model.OperatorXor, []bool{true, true, true}, true},
		{"single group and", model.OperatorAnd, []bool{true}, true},
		{"single group xor", model.OperatorXor, []bool{false}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := combine(c.op, c.latches); got != c.want {
				t.Errorf("%s over %v: got %v, want %v", c.op, c.latches, got, c.want)
			}
		})
	}
}
