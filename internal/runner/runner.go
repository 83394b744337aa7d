// Package runner schedules Comparison Memory rules. Each rule runs on its
// own task with its own interval ticker, so a slow point read for one rule
// can never delay another. The runner keeps its task set in sync with the
// definition store.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/compare-engine/internal/metrics"
	"github.com/sweeney/compare-engine/internal/model"
	"github.com/sweeney/compare-engine/internal/points"
	"github.com/sweeney/compare-engine/internal/status"
	"github.com/sweeney/compare-engine/internal/store"
)

// Options configures a Runner. Now and NewTicker default to the real clock
// and are injectable for tests.
type Options struct {
	Store   store.Store
	Reader  points.Reader
	Writer  points.Writer
	Tracker *status.Tracker
	Metrics *metrics.Metrics
	Log     *slog.Logger

	Now       func() time.Time
	NewTicker func(d time.Duration) (<-chan time.Time, func())
}

// Runner owns one task per stored rule.
type Runner struct {
	opts Options

	mu    sync.Mutex
	tasks map[string]*task
}

// New creates a Runner. Store, Reader, Writer and Tracker are required.
func New(opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewTicker == nil {
		opts.NewTicker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	return &Runner{opts: opts, tasks: make(map[string]*task)}
}

// Run loads every stored definition, starts their tasks, and keeps the task
// set in sync with store changes until ctx is cancelled. It blocks.
func (r *Runner) Run(ctx context.Context) error {
	defs, err := r.opts.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, def := range defs {
		r.startTask(def)
	}
	r.opts.Log.Info("runner started", "rules", len(defs))

	changes := r.opts.Store.Watch()
	for {
		select {
		case <-ctx.Done():
			r.stopAll()
			return nil
		case c, ok := <-changes:
			if !ok {
				r.stopAll()
				return nil
			}
			r.apply(ctx, c)
		}
	}
}

// apply re-syncs one rule's task with a store change.
func (r *Runner) apply(ctx context.Context, c store.Change) {
	switch c.Kind {
	case store.ChangeDeleted:
		r.stopTask(c.ID)
		r.opts.Tracker.RemoveRule(c.ID)
		if r.opts.Metrics != nil {
			r.opts.Metrics.Forget(c.ID)
		}
		r.opts.Log.Info("rule removed", "rule", c.ID)

	case store.ChangeSaved:
		def, err := r.opts.Store.Get(ctx, c.ID)
		if err != nil {
			r.opts.Log.Error("load changed rule", "rule", c.ID, "error", err)
			return
		}
		r.mu.Lock()
		t, ok := r.tasks[c.ID]
		r.mu.Unlock()
		if ok {
			t.submit(def)
			r.opts.Log.Info("rule updated", "rule", c.ID)
			return
		}
		r.startTask(def)
		r.opts.Log.Info("rule added", "rule", c.ID)
	}
}

func (r *Runner) startTask(def model.ComparisonMemory) {
	t := newTask(def, r.opts)
	r.mu.Lock()
	r.tasks[def.ID] = t
	r.mu.Unlock()
	go t.loop()
}

func (r *Runner) stopTask(id string) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	r.mu.Unlock()
	if ok {
		t.stopAndWait()
	}
}

func (r *Runner) stopAll() {
	r.mu.Lock()
	tasks := make([]*task, 0, len(r.tasks))
	for id, t := range r.tasks {
		tasks = append(tasks, t)
		delete(r.tasks, id)
	}
	r.mu.Unlock()
	for _, t := range tasks {
		t.stopAndWait()
	}
}

// TaskCount reports the number of running tasks, for status handlers.
func (r *Runner) TaskCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
