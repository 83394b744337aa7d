package engine

import (
	"testing"
	"time"

	"github.com/sweeney/compare-engine/internal/model"
)

// fixedReads returns a ReadFunc backed by a map; absent points are
// unavailable.
func fixedReads(values map[string]float64) ReadFunc {
	return func(id string) (float64, bool) {
		v, ok := values[id]
		return v, ok
	}
}

func digitalRule() model.ComparisonMemory {
	return model.ComparisonMemory{
		ID:              "cm1",
		Operator:        model.OperatorOr,
		OutputItemID:    "out",
		IntervalSeconds: 1,
		Groups: []model.ComparisonGroup{{
			ID:            "g1",
			InputItemIDs:  []string{"a", "b", "c"},
			RequiredVotes: 2,
			Mode:          model.ModeDigital,
			DigitalValue:  model.DigitalOn,
		}},
	}
}

func TestTickCommitsImmediatelyWithZeroDuration(t *testing.T) {
	e := New(digitalRule())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	res, err := e.Tick(now, fixedReads(map[string]float64{"a": 1, "b": 1, "c": 0}))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !res.Commit {
		t.Fatal("expected immediate commit with duration 0")
	}
	if !res.Output {
		t.Error("2 of 3 votes with required 2 should produce true")
	}
}

func TestTickNoRewriteWhileStable(t *testing.T) {
	e := New(digitalRule())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reads := fixedReads(map[string]float64{"a": 1, "b": 1, "c": 1})

	res, _ := e.Tick(now, reads)
	if !res.Commit {
		t.Fatal("first tick should commit")
	}
	res, _ = e.Tick(now.Add(time.Second), reads)
	if res.Commit {
		t.Error("unchanged output should not be re-committed")
	}
}

func TestWriteRetryAfterFailure(t *testing.T) {
	e := New(digitalRule())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reads := fixedReads(map[string]float64{"a": 1, "b": 1, "c": 1})

	res, _ := e.Tick(now, reads)
	if !res.Commit {
		t.Fatal("first tick should commit")
	}
	e.MarkWriteFailed()

	res, _ = e.Tick(now.Add(time.Second), reads)
	if !res.Commit {
		t.Error("commit should be re-issued after a write failure")
	}
	res, _ = e.Tick(now.Add(2*time.Second), reads)
	if res.Commit {
		t.Error("successful retry should not keep re-committing")
	}
}

func TestDurationDebounce(t *testing.T) {
	def := digitalRule()
	def.DurationSeconds = 5
	e := New(def)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	off := fixedReads(map[string]float64{"a": 0, "b": 0, "c": 0})
	on := fixedReads(map[string]float64{"a": 1, "b": 1, "c": 1})

	// Establish a committed false output first.
	for i := 0; i < 6; i++ {
		e.Tick(start.Add(time.Duration(i)*time.Second), off)
	}
	if out, ok := e.Committed(); !ok || out {
		t.Fatalf("expected committed false after hold, got committed=%v value=%v", ok, out)
	}

	// Candidate flips true but falls back within the duration: no commit.
	base := start.Add(10 * time.Second)
	res, _ := e.Tick(base, on)
	if res.Commit {
		t.Fatal("flip should not commit before the duration elapses")
	}
	res, _ = e.Tick(base.Add(3*time.Second), on)
	if res.Commit {
		t.Fatal("3s of a 5s duration should not commit")
	}
	res, _ = e.Tick(base.Add(4*time.Second), off)
	if res.Commit {
		t.Fatal("candidate change must reset the debounce timer")
	}

	// Held long enough: commits.
	for i := 0; i <= 5; i++ {
		res, _ = e.Tick(base.Add(time.Duration(10+i)*time.Second), on)
	}
	if !res.Commit || !res.Output {
		t.Errorf("expected true commit after the candidate held 5s, got commit=%v output=%v", res.Commit, res.Output)
	}
}

func TestInvertOutput(t *testing.T) {
	def := digitalRule()
	def.InvertOutput = true
	e := New(def)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	res, _ := e.Tick(now, fixedReads(map[string]float64{"a": 1, "b": 1, "c": 1}))
	if !res.Commit {
		t.Fatal("expected commit")
	}
	if res.Output {
		t.Error("combined true with invert_output should commit false")
	}
}

func TestDisabledSkipsAndKeepsState(t *testing.T) {
	def := digitalRule()
	e := New(def)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	on := fixedReads(map[string]float64{"a": 1, "b": 1, "c": 1})

	e.Tick(now, on)
	if latched, _ := e.GroupLatch("g1"); !latched {
		t.Fatal("group should be latched on")
	}

	def.Disabled = true
	e.Apply(def)
	res, err := e.Tick(now.Add(time.Second), on)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !res.Skipped {
		t.Error("disabled rule should skip evaluation")
	}
	if latched, _ := e.GroupLatch("g1"); !latched {
		t.Error("disabling must not reset the latch")
	}

	// Re-enable: resumes from the held state.
	def.Disabled = false
	e.Apply(def)
	if latched, _ := e.GroupLatch("g1"); !latched {
		t.Error("re-enabling must resume from the held latch")
	}
}

func TestUnavailableInputsVoteFalse(t *testing.T) {
	e := New(digitalRule())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Only "a" is readable; the group needs 2 votes.
	res, err := e.Tick(now, fixedReads(map[string]float64{"a": 1}))
	if err != nil {
		t.Fatalf("unavailable inputs must not be fatal: %v", err)
	}
	if res.Unavailable != 2 {
		t.Errorf("expected 2 unavailable inputs, got %d", res.Unavailable)
	}
	if res.Groups[0].TrueVotes != 1 {
		t.Errorf("expected 1 true vote, got %d", res.Groups[0].TrueVotes)
	}
	if res.Candidate {
		t.Error("1 of 2 required votes should leave the group off")
	}
}

func TestApplyResetsChangedGroupsOnly(t *testing.T) {
	def := model.ComparisonMemory{
		ID:              "cm1",
		Operator:        model.OperatorOr,
		OutputItemID:    "out",
		IntervalSeconds: 1,
		Groups: []model.ComparisonGroup{
			{
				ID: "g1", InputItemIDs: []string{"a", "b"}, RequiredVotes: 1,
				Mode: model.ModeDigital, DigitalValue: model.DigitalOn,
			},
			{
				ID: "g2", InputItemIDs: []string{"c", "d"}, RequiredVotes: 1,
				Mode: model.ModeDigital, DigitalValue: model.DigitalOn,
			},
		},
	}
	e := New(def)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e.Tick(now, fixedReads(map[string]float64{"a": 1, "b": 0, "c": 1, "d": 0}))

	if l, _ := e.GroupLatch("g1"); !l {
		t.Fatal("g1 should be latched")
	}
	if l, _ := e.GroupLatch("g2"); !l {
		t.Fatal("g2 should be latched")
	}

	// Edit g2's voting structure; g1 is untouched.
	edited := def.Clone()
	edited.Groups[1].RequiredVotes = 2
	e.Apply(edited)

	if l, _ := e.GroupLatch("g1"); !l {
		t.Error("unchanged group must keep its latch across an edit")
	}
	if l, _ := e.GroupLatch("g2"); l {
		t.Error("structurally edited group must reset to off")
	}

	// Renaming only must not reset anything.
	renamed := edited.Clone()
	renamed.Groups[0].Name = "pressure sensors"
	e.Apply(renamed)
	if l, _ := e.GroupLatch("g1"); !l {
		t.Error("a name-only edit must not reset the latch")
	}
}

func TestTickFaultOnEmptyGroup(t *testing.T) {
	def := digitalRule()
	e := New(def)
	// Simulate a broken definition slipping past validation.
	e.def.Groups[0].InputItemIDs = nil

	if _, err := e.Tick(time.Now(), fixedReads(nil)); err == nil {
		t.Error("a group with no inputs must surface an engine fault")
	}
}

func TestThresholdHysteresisAcrossTicks(t *testing.T) {
	// Analog HIGHER at 50 with hysteresis 2, driven through a rising and
	// falling sweep to confirm per-input vote history is carried.
	def := model.ComparisonMemory{
		ID:              "cm2",
		Operator:        model.OperatorAnd,
		OutputItemID:    "out",
		IntervalSeconds: 1,
		Groups: []model.ComparisonGroup{{
			ID:                  "g1",
			InputItemIDs:        []string{"t"},
			RequiredVotes:       1,
			Mode:                model.ModeAnalog,
			CompareType:         model.CompareHigher,
			Threshold1:          f(50),
			ThresholdHysteresis: 2,
		}},
	}
	e := New(def)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sweep := []struct {
		value float64
		want  bool
	}{
		{40, false},
		{51, false},
		{52.1, true},
		{49, true},
		{47.9, false},
	}
	for i, s := range sweep {
		res, err := e.Tick(start.Add(time.Duration(i)*time.Second), fixedReads(map[string]float64{"t": s.value}))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if res.Candidate != s.want {
			t.Errorf("value %v: candidate %v, want %v", s.value, res.Candidate, s.want)
		}
	}
}
