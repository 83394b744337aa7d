package engine

import (
	"fmt"
	"time"

	"github.com/sweeney/compare-engine/internal/model"
)

// Evaluator runs one Comparison Memory rule. It owns all runtime state for
// that rule (group latches, per-input vote history, the candidate debounce
// timer) and is not safe for concurrent use: the runner drives it from a
// single goroutine.
type Evaluator struct {
	def    model.ComparisonMemory
	groups map[string]*GroupState

	candidate      bool
	candidateSince time.Time
	haveCandidate  bool

	committed     bool
	committedOnce bool
	writePending  bool
}

// New creates an Evaluator for the given definition. The definition must
// already have passed model.Validate; Tick reports an error if a structural
// invariant is broken anyway.
func New(def model.ComparisonMemory) *Evaluator {
	e := &Evaluator{def: def.Clone()}
	e.resetGroups()
	return e
}

func (e *Evaluator) resetGroups() {
	e.groups = make(map[string]*GroupState, len(e.def.Groups))
	for _, g := range e.def.Groups {
		e.groups[g.ID] = newGroupState(g)
	}
}

func newGroupState(g model.ComparisonGroup) *GroupState {
	return &GroupState{PrevVotes: make(map[string]bool, len(g.InputItemIDs))}
}

// Definition returns the definition currently being evaluated.
func (e *Evaluator) Definition() model.ComparisonMemory {
	return e.def.Clone()
}

// Apply swaps in an edited definition between ticks. Runtime state is kept
// for groups whose voting structure (inputs, required votes, voting
// hysteresis) is unchanged and reset for the rest; state for removed groups
// is dropped.
func (e *Evaluator) Apply(def model.ComparisonMemory) {
	old := e.def
	e.def = def.Clone()

	groups := make(map[string]*GroupState, len(e.def.Groups))
	for _, g := range e.def.Groups {
		prev, ok := old.Group(g.ID)
		if ok && g.StructureEquals(prev) {
			if st := e.groups[g.ID]; st != nil {
				groups[g.ID] = st
				continue
			}
		}
		groups[g.ID] = newGroupState(g)
	}
	e.groups = groups
}

// MarkWriteFailed records that the last commit's write did not reach the
// point store. The next tick re-issues the write with the recomputed
// candidate; nothing is queued.
func (e *Evaluator) MarkWriteFailed() {
	e.writePending = true
}

// Tick evaluates the rule once: read every input, vote, aggregate each
// group, combine, and decide whether the candidate has held long enough to
// commit. now should come from a monotonic clock source. A non-nil error is
// an engine fault: the definition is structurally broken and the rule's task
// should be restarted, leaving other rules untouched.
func (e *Evaluator) Tick(now time.Time, read ReadFunc) (Result, error) {
	if e.def.Disabled {
		return Result{Skipped: true}, nil
	}
	if len(e.def.Groups) == 0 {
		return Result{}, fmt.Errorf("rule %s: no groups", e.def.ID)
	}

	res := Result{Groups: make([]GroupResult, 0, len(e.def.Groups))}
	latches := make([]bool, 0, len(e.def.Groups))

	for _, g := range e.def.Groups {
		st := e.groups[g.ID]
		if st == nil {
			return Result{}, fmt.Errorf("rule %s: missing state for group %s", e.def.ID, g.ID)
		}
		if len(g.InputItemIDs) == 0 {
			return Result{}, fmt.Errorf("rule %s: group %s has no inputs", e.def.ID, g.ID)
		}

		gr := GroupResult{GroupID: g.ID, Inputs: len(g.InputItemIDs)}
		for _, inputID := range g.InputItemIDs {
			value, ok := read(inputID)
			vote := false
			if ok {
				vote = voteInput(g, value, st.PrevVotes[inputID])
			} else {
				gr.Unavailable++
			}
			st.PrevVotes[inputID] = vote
			if vote {
				gr.TrueVotes++
			}
		}

		st.Latched = aggregate(g, gr.TrueVotes, st.Latched)
		gr.Latched = st.Latched
		res.Unavailable += gr.Unavailable
		res.Groups = append(res.Groups, gr)
		latches = append(latches, st.Latched)
	}

	candidate := combine(e.def.Operator, latches)
	if e.def.InvertOutput {
		candidate = !candidate
	}

	if !e.haveCandidate || candidate != e.candidate {
		e.candidate = candidate
		e.candidateSince = now
		e.haveCandidate = true
	}
	res.Candidate = candidate
	res.HeldFor = now.Sub(e.candidateSince)

	duration := time.Duration(e.def.DurationSeconds) * time.Second
	if res.HeldFor >= duration {
		changed := !e.committedOnce || e.committed != candidate
		if changed || e.writePending {
			res.Commit = true
			res.Output = candidate
			e.committed = candidate
			e.committedOnce = true
			e.writePending = false
		}
	}

	return res, nil
}

// GroupLatch reports a group's current latched state, for status readers.
func (e *Evaluator) GroupLatch(groupID string) (bool, bool) {
	st, ok := e.groups[groupID]
	if !ok {
		return false, false
	}
	return st.Latched, true
}

// Committed returns the last committed output value, and whether any commit
// has happened yet.
func (e *Evaluator) Committed() (bool, bool) {
	return e.committed, e.committedOnce
}
