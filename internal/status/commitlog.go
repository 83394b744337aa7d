package status

import (
	"sync"
	"time"
)

// CommitRecord is one committed output write, kept for the status surface.
type CommitRecord struct {
	Time    time.Time `json:"time"`
	RuleID  string    `json:"rule_id"`
	PointID string    `json:"point_id"`
	Value   bool      `json:"value"`
	// WriteOK is false when the write failed and will be retried.
	WriteOK bool `json:"write_ok"`
}

// CommitLog is a fixed-capacity FIFO of recent output commits. Oldest
// records are overwritten once the capacity is reached.
type CommitLog struct {
	mu    sync.Mutex
	buf   []CommitRecord
	head  int // next write position
	count int
}

// NewCommitLog creates a log holding up to capacity records.
func NewCommitLog(capacity int) *CommitLog {
	if capacity < 1 {
		capacity = 1
	}
	return &CommitLog{buf: make([]CommitRecord, capacity)}
}

// Push appends a record, overwriting the oldest when full.
func (l *CommitLog) Push(c CommitRecord) {
	l.mu.Lock()
	l.buf[l.head] = c
	l.head = (l.head + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
	l.mu.Unlock()
}

// Recent returns the held records, oldest first.
func (l *CommitLog) Recent() []CommitRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return nil
	}
	out := make([]CommitRecord, l.count)
	start := (l.head - l.count + len(l.buf)) % len(l.buf)
	for i := 0; i < l.count; i++ {
		out[i] = l.buf[(start+i)%len(l.buf)]
	}
	return out
}

// Len returns the number of held records.
func (l *CommitLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
