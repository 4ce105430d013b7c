// Package runqueue provides the shared FIFO queue workers take tasks from.
// The queue is loaded by a single producer during startup and drained by the
// worker pool through a three-outcome steal protocol; producer and consumers
// may overlap in time, so pushing while stealing is safe.
package runqueue

import (
	"sync"

	"github.com/taskdist/taskdist/internal/task"
)

// Outcome is the result of one steal attempt.
type Outcome int

const (
	// Empty means no task is currently available. The queue may still
	// receive tasks; the caller should re-poll with backoff.
	Empty Outcome = iota

	// Success means ownership of exactly one task transferred to the
	// caller. No other consumer will receive the same task.
	Success

	// Retry means a transient conflict with another consumer or the
	// producer. The queue is not known to be empty; the caller must
	// retry immediately, without backoff.
	Retry
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Empty:
		return "empty"
	case Success:
		return "success"
	case Retry:
		return "retry"
	default:
		return "unknown"
	}
}

// Queue is a concurrency-safe FIFO of tasks. The zero value is not usable;
// construct with New. Callers need no external locking.
type Queue struct {
	mu    sync.Mutex
	tasks []*task.Task
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Push appends a task to the tail of the queue. Push blocks until the
// queue lock is available, so a bulk load always lands every task.
func (q *Queue) Push(t *task.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
}

// Steal attempts to take the task at the head of the queue. It never
// blocks: if the queue lock is momentarily held by another consumer or the
// producer, Steal reports Retry and the caller tries again. Retry resolves
// in bounded attempts because the lock is only ever held for a constant-
// time operation.
func (q *Queue) Steal() (*task.Task, Outcome) {
	if !q.mu.TryLock() {
		return nil, Retry
	}
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, Empty
	}

	t := q.tasks[0]
	q.tasks[0] = nil // release the reference; the slice head moves past it
	q.tasks = q.tasks[1:]
	return t, Success
}

// Len reports how many tasks are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
