// Package repl implements the interactive reflection loop: a loopback
// listener for commit notifications, a bounded commit queue, a state
// machine and the terminal session driving them.
package repl

import (
	"fmt"
	"sync"
	"time"
)

// DefaultQueueSize bounds the commit queue; the oldest entry is dropped
// when a new commit arrives at capacity.
const DefaultQueueSize = 100

// QueuedCommit is a commit waiting for reflection.
type QueuedCommit struct {
	CommitHash string
	Project    string
	Branch     string
	RepoPath   string
	ReceivedAt time.Time
}

// ShortHash returns the first 7 characters of the commit hash.
func (c QueuedCommit) ShortHash() string {
	if len(c.CommitHash) > 7 {
		return c.CommitHash[:7]
	}
	return c.CommitHash
}

func (c QueuedCommit) String() string {
	return fmt.Sprintf("QueuedCommit(%s, %s/%s)", c.ShortHash(), c.Project, c.Branch)
}

// CommitQueue is a bounded FIFO of pending commits plus a separate
// "current" slot for the commit being actively reflected on. Safe for
// concurrent use: the listener enqueues while the REPL loop dequeues.
type CommitQueue struct {
	mu      sync.Mutex
	items   []QueuedCommit
	current *QueuedCommit
	maxSize int
}

// NewCommitQueue creates a queue bounded at maxSize; zero or negative
// uses DefaultQueueSize.
func NewCommitQueue(maxSize int) *CommitQueue {
	if maxSize <= 0 {
		maxSize = DefaultQueueSize
	}
	return &CommitQueue{maxSize: maxSize}
}

// Enqueue appends a commit, dropping the oldest entry at capacity. It
// returns the queue size after adding.
func (q *CommitQueue) Enqueue(c QueuedCommit) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.maxSize {
		q.items = q.items[1:]
	}
	q.items = append(q.items, c)
	return len(q.items)
}

// Dequeue removes and returns the next commit, marking it current.
func (q *CommitQueue) Dequeue() (QueuedCommit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return QueuedCommit{}, false
	}
	c := q.items[0]
	q.items = q.items[1:]
	q.current = &c
	return c, true
}

// Peek returns the next commit without removing it.
func (q *CommitQueue) Peek() (QueuedCommit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return QueuedCommit{}, false
	}
	return q.items[0], true
}

// Size returns the number of pending commits.
func (q *CommitQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether no commits are pending.
func (q *CommitQueue) IsEmpty() bool {
	return q.Size() == 0
}

// Current returns the commit being processed, if any.
func (q *CommitQueue) Current() (QueuedCommit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil {
		return QueuedCommit{}, false
	}
	return *q.current, true
}

// ClearCurrent drops the current commit reference after a reflection
// finishes or is cancelled.
func (q *CommitQueue) ClearCurrent() {
	q.mu.Lock()
	q.current = nil
	q.mu.Unlock()
}

// All returns a snapshot of pending commits in queue order.
func (q *CommitQueue) All() []QueuedCommit {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]QueuedCommit, len(q.items))
	copy(out, q.items)
	return out
}

// Clear removes all pending commits and the current reference, returning
// the number of pending commits dropped.
func (q *CommitQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	q.current = nil
	return n
}
