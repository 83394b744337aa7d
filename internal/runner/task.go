package runner

import (
	"fmt"
	"time"

	"github.com/sweeney/compare-engine/internal/engine"
	"github.com/sweeney/compare-engine/internal/model"
	"github.com/sweeney/compare-engine/internal/status"
)

// task runs a single rule. All evaluator state is owned by the task's
// goroutine; the runner talks to it only through channels, so edits are
// applied between ticks and never mid-evaluation.
type task struct {
	opts Options

	update chan model.ComparisonMemory
	stop   chan struct{}
	done   chan struct{}

	// goroutine-local; never touched from outside the loop.
	def           model.ComparisonMemory
	ev            *engine.Evaluator
	writeFailures int
	faults        int
	lastCommit    time.Time
}

func newTask(def model.ComparisonMemory, opts Options) *task {
	return &task{
		opts:   opts,
		update: make(chan model.ComparisonMemory, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		def:    def,
		ev:     engine.New(def),
	}
}

// submit hands an edited definition to the task. Only the newest pending
// edit matters, so a stale queued one is replaced rather than blocked on.
func (t *task) submit(def model.ComparisonMemory) {
	for {
		select {
		case t.update <- def:
			return
		default:
			select {
			case <-t.update:
			default:
			}
		}
	}
}

func (t *task) stopAndWait() {
	close(t.stop)
	<-t.done
}

func (t *task) interval() time.Duration {
	iv := t.def.IntervalSeconds
	if iv < 1 {
		iv = 1
	}
	return time.Duration(iv) * time.Second
}

func (t *task) loop() {
	defer close(t.done)

	tick, stopTicker := t.opts.NewTicker(t.interval())
	defer func() { stopTicker() }()

	for {
		select {
		case <-t.stop:
			return

		case def := <-t.update:
			restart := def.IntervalSeconds != t.def.IntervalSeconds
			t.def = def
			t.ev.Apply(def)
			if restart {
				stopTicker()
				tick, stopTicker = t.opts.NewTicker(t.interval())
			}

		case <-tick:
			if err := t.safeTick(t.opts.Now()); err != nil {
				// Engine fault: isolate it to this rule, restart the
				// evaluator with fresh state, keep every other rule running.
				t.faults++
				if t.opts.Metrics != nil {
					t.opts.Metrics.EngineFaults.WithLabelValues(t.def.ID).Inc()
				}
				t.opts.Log.Error("engine fault, restarting rule task", "rule", t.def.ID, "error", err)
				t.ev = engine.New(t.def)
			}
		}
	}
}

// safeTick runs one evaluation, converting panics into errors so a broken
// rule can never take down the process.
func (t *task) safeTick(now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res, err := t.ev.Tick(now, t.opts.Reader.Read)
	if err != nil {
		return err
	}

	if t.opts.Metrics != nil && !res.Skipped {
		t.opts.Metrics.Evaluations.WithLabelValues(t.def.ID).Inc()
		if res.Unavailable > 0 {
			t.opts.Metrics.InputUnavailable.WithLabelValues(t.def.ID).Add(float64(res.Unavailable))
		}
	}

	if res.Commit {
		werr := t.opts.Writer.Write(t.def.OutputItemID, res.Output)
		if werr != nil {
			t.ev.MarkWriteFailed()
			t.writeFailures++
			if t.opts.Metrics != nil {
				t.opts.Metrics.WriteFailures.WithLabelValues(t.def.ID).Inc()
			}
			t.opts.Log.Warn("output write failed, will retry next tick",
				"rule", t.def.ID, "point", t.def.OutputItemID, "error", werr)
		} else {
			t.lastCommit = now
			if t.opts.Metrics != nil {
				v := 0.0
				if res.Output {
					v = 1
				}
				t.opts.Metrics.Commits.WithLabelValues(t.def.ID).Inc()
				t.opts.Metrics.Output.WithLabelValues(t.def.ID).Set(v)
			}
			t.opts.Log.Info("output committed",
				"rule", t.def.ID, "point", t.def.OutputItemID, "value", res.Output)
		}
		if t.opts.Tracker != nil {
			t.opts.Tracker.RecordCommit(status.CommitRecord{
				Time:    now,
				RuleID:  t.def.ID,
				PointID: t.def.OutputItemID,
				Value:   res.Output,
				WriteOK: werr == nil,
			})
		}
	}

	t.publishStatus(now, res)
	return nil
}

func (t *task) publishStatus(now time.Time, res engine.Result) {
	if t.opts.Tracker == nil {
		return
	}
	out, committed := t.ev.Committed()
	st := status.RuleStatus{
		ID:            t.def.ID,
		Name:          t.def.Name,
		Disabled:      t.def.Disabled,
		Candidate:     res.Candidate,
		HeldFor:       res.HeldFor,
		Output:        out,
		Committed:     committed,
		LastEvaluated: now,
		LastCommit:    t.lastCommit,
		Unavailable:   res.Unavailable,
		WriteFailures: t.writeFailures,
		Faults:        t.faults,
	}
	for _, g := range res.Groups {
		st.Groups = append(st.Groups, status.GroupStatus{
			ID:          g.GroupID,
			Latched:     g.Latched,
			TrueVotes:   g.TrueVotes,
			Inputs:      g.Inputs,
			Unavailable: g.Unavailable,
		})
	}
	t.opts.Tracker.SetRule(st)
}
