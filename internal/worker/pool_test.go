package worker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taskdist/taskdist/internal/logging"
	"github.com/taskdist/taskdist/internal/runqueue"
	"github.com/taskdist/taskdist/internal/task"
)

// countingRunner records which tasks it has run and how often.
type countingRunner struct {
	mu   sync.Mutex
	runs map[int64]int
	done chan struct{} // receives one value per completed run

	failFor  map[int64]bool
	panicFor map[int64]bool
}

func newCountingRunner(expected int) *countingRunner {
	return &countingRunner{
		runs:     make(map[int64]int),
		done:     make(chan struct{}, expected),
		failFor:  make(map[int64]bool),
		panicFor: make(map[int64]bool),
	}
}

func (r *countingRunner) Run(t *task.Task) error {
	r.mu.Lock()
	r.runs[t.ID]++
	r.mu.Unlock()
	r.done <- struct{}{}

	if r.panicFor[t.ID] {
		panic("runner exploded")
	}
	if r.failFor[t.ID] {
		return errFailed
	}
	return nil
}

var errFailed = errors.New("runner failed")

func (r *countingRunner) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-deadline:
			t.Fatalf("timed out waiting for %d runs (got %d)", n, i)
		}
	}
}

// syncBuffer is a goroutine-safe writer for inspecting log output while
// workers are still running.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func makeTasks(n int) []*task.Task {
	seq := task.NewSequence()
	tasks := make([]*task.Task, n)
	for i := range tasks {
		tasks[i] = &task.Task{ID: seq.Next(), Name: "t", Repeat: 1}
	}
	return tasks
}

func TestPoolExecutesEveryTaskOnce(t *testing.T) {
	for _, workers := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("%d-workers", workers), func(t *testing.T) {
			const taskCount = 50

			queue := runqueue.New()
			runner := newCountingRunner(taskCount)
			pool := NewPool(workers, queue, runner, logging.NewWriterLogger(io.Discard))
			pool.Start()

			for _, tk := range makeTasks(taskCount) {
				queue.Push(tk)
			}

			runner.waitFor(t, taskCount)

			runner.mu.Lock()
			defer runner.mu.Unlock()
			if len(runner.runs) != taskCount {
				t.Errorf("ran %d distinct tasks, want %d", len(runner.runs), taskCount)
			}
			for id, count := range runner.runs {
				if count != 1 {
					t.Errorf("task %d ran %d times, want exactly 1", id, count)
				}
			}
		})
	}
}

func TestPoolSurvivesTaskFailure(t *testing.T) {
	const taskCount = 10

	queue := runqueue.New()
	runner := newCountingRunner(taskCount)
	runner.failFor[0] = true
	runner.failFor[3] = true

	pool := NewPool(2, queue, runner, logging.NewWriterLogger(io.Discard))
	pool.Start()

	for _, tk := range makeTasks(taskCount) {
		queue.Push(tk)
	}

	runner.waitFor(t, taskCount)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.runs) != taskCount {
		t.Errorf("ran %d distinct tasks, want %d despite failures", len(runner.runs), taskCount)
	}
}

func TestPoolSurvivesRunnerPanic(t *testing.T) {
	const taskCount = 5

	buf := &syncBuffer{}
	queue := runqueue.New()
	runner := newCountingRunner(taskCount)
	runner.panicFor[0] = true

	pool := NewPool(1, queue, runner, logging.NewWriterLogger(buf))
	pool.Start()

	for _, tk := range makeTasks(taskCount) {
		queue.Push(tk)
	}

	runner.waitFor(t, taskCount)

	if !strings.Contains(buf.String(), "task crashed") {
		t.Error("expected a crash log entry for the panicking task")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.runs) != taskCount {
		t.Errorf("ran %d distinct tasks, want %d; the panic should not kill the worker", len(runner.runs), taskCount)
	}
}

func TestPoolLogsWaitingOncePerEmptyStreak(t *testing.T) {
	buf := &syncBuffer{}
	queue := runqueue.New()
	runner := newCountingRunner(2)

	pool := NewPool(1, queue, runner, logging.NewWriterLogger(buf))
	pool.Start()

	// First empty streak: the worker polls an empty queue many times but
	// must announce it only once.
	time.Sleep(100 * time.Millisecond)
	if got := strings.Count(buf.String(), "waiting for tasks"); got != 1 {
		t.Errorf("waiting notice logged %d times during first streak, want 1", got)
	}

	queue.Push(makeTasks(1)[0])
	runner.waitFor(t, 1)

	// Obtaining a task resets the log-once state, so the next empty
	// streak is announced again.
	time.Sleep(300 * time.Millisecond)
	if got := strings.Count(buf.String(), "waiting for tasks"); got != 2 {
		t.Errorf("waiting notice logged %d times across two streaks, want 2", got)
	}
}

func TestPoolLogsOutcomes(t *testing.T) {
	buf := &syncBuffer{}
	queue := runqueue.New()
	runner := newCountingRunner(2)
	runner.failFor[1] = true

	pool := NewPool(1, queue, runner, logging.NewWriterLogger(buf))
	pool.Start()

	for _, tk := range makeTasks(2) {
		queue.Push(tk)
	}
	runner.waitFor(t, 2)

	// Give the worker a moment to write the outcome of the second task.
	time.Sleep(50 * time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, "finished task") {
		t.Error("missing completion log for the successful task")
	}
	if !strings.Contains(out, "task failed") {
		t.Error("missing failure log for the failing task")
	}
}
