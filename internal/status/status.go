// Package status provides a thread-safe view of engine runtime state. It is
// written by the runner on every tick and read by HTTP handlers.
package status

import (
	"sort"
	"sync"
	"time"
)

// GroupStatus is one group's state at the last evaluation.
type GroupStatus struct {
	ID          string `json:"id"`
	Latched     bool   `json:"latched"`
	TrueVotes   int    `json:"true_votes"`
	Inputs      int    `json:"inputs"`
	Unavailable int    `json:"unavailable"`
}

// RuleStatus is a point-in-time view of one rule's runtime state.
// It is a value type, safe to use after the lock is released.
type RuleStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Disabled bool   `json:"disabled"`

	Candidate bool          `json:"candidate"`
	HeldFor   time.Duration `json:"held_for"`

	Output    bool `json:"output"`
	Committed bool `json:"committed"`

	LastEvaluated time.Time `json:"last_evaluated"`
	LastCommit    time.Time `json:"last_commit,omitempty"`

	Unavailable   int `json:"unavailable"`
	WriteFailures int `json:"write_failures"`
	Faults        int `json:"faults"`

	Groups []GroupStatus `json:"groups"`
}

// Tracker holds per-rule status behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	startTime time.Time
	rules     map[string]RuleStatus
	commits   *CommitLog
}

// NewTracker creates a Tracker with the given start time. recentCommits is
// the capacity of the recent-commit log.
func NewTracker(startTime time.Time, recentCommits int) *Tracker {
	return &Tracker{
		startTime: startTime,
		rules:     make(map[string]RuleStatus),
		commits:   NewCommitLog(recentCommits),
	}
}

// StartTime returns when the engine started.
func (t *Tracker) StartTime() time.Time {
	return t.startTime
}

// SetRule replaces a rule's status. Called from the rule's task on every
// tick.
func (t *Tracker) SetRule(s RuleStatus) {
	t.mu.Lock()
	t.rules[s.ID] = s
	t.mu.Unlock()
}

// RemoveRule drops a rule's status after its definition is deleted.
func (t *Tracker) RemoveRule(id string) {
	t.mu.Lock()
	delete(t.rules, id)
	t.mu.Unlock()
}

// Rule returns one rule's status.
func (t *Tracker) Rule(id string) (RuleStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.rules[id]
	return s, ok
}

// Snapshot returns every rule's status, ordered by id.
func (t *Tracker) Snapshot() []RuleStatus {
	t.mu.RLock()
	out := make([]RuleStatus, 0, len(t.rules))
	for _, s := range t.rules {
		out = append(out, s)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordCommit appends a commit to the recent-commit log.
func (t *Tracker) RecordCommit(c CommitRecord) {
	t.commits.Push(c)
}

// RecentCommits returns the recent-commit log, oldest first.
func (t *Tracker) RecentCommits() []CommitRecord {
	return t.commits.Recent()
}
