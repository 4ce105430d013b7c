package runqueue

import (
	"sync"
	"testing"

	"github.com/taskdist/taskdist/internal/task"
)

func makeTasks(n int) []*task.Task {
	seq := task.NewSequence()
	tasks := make([]*task.Task, n)
	for i := range tasks {
		tasks[i] = &task.Task{ID: seq.Next(), Name: "t", Repeat: 1}
	}
	return tasks
}

// stealBlocking retries through Retry outcomes until the queue yields
// Empty or Success.
func stealBlocking(q *Queue) (*task.Task, Outcome) {
	for {
		t, outcome := q.Steal()
		if outcome != Retry {
			return t, outcome
		}
	}
}

func TestStealFIFO(t *testing.T) {
	q := New()
	tasks := makeTasks(5)
	for _, tk := range tasks {
		q.Push(tk)
	}

	if q.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", q.Len())
	}

	for i, want := range tasks {
		got, outcome := stealBlocking(q)
		if outcome != Success {
			t.Fatalf("steal %d: outcome = %v, want success", i, outcome)
		}
		if got != want {
			t.Errorf("steal %d: got task %d, want %d", i, got.ID, want.ID)
		}
	}

	if _, outcome := stealBlocking(q); outcome != Empty {
		t.Errorf("outcome after drain = %v, want empty", outcome)
	}
}

func TestStealEmpty(t *testing.T) {
	q := New()

	taskGot, outcome := q.Steal()
	if outcome != Empty {
		t.Errorf("outcome = %v, want empty", outcome)
	}
	if taskGot != nil {
		t.Errorf("task = %v, want nil", taskGot)
	}
}

func TestStealContended(t *testing.T) {
	// Hold the queue lock and confirm a concurrent steal reports Retry
	// rather than blocking or claiming emptiness.
	q := New()
	q.Push(makeTasks(1)[0])

	q.mu.Lock()
	_, outcome := q.Steal()
	q.mu.Unlock()

	if outcome != Retry {
		t.Errorf("outcome under contention = %v, want retry", outcome)
	}

	if _, outcome := q.Steal(); outcome != Success {
		t.Errorf("outcome after contention cleared = %v, want success", outcome)
	}
}

func TestConcurrentStealers(t *testing.T) {
	const taskCount = 200
	const stealers = 8

	q := New()
	for _, tk := range makeTasks(taskCount) {
		q.Push(tk)
	}

	results := make(chan int64, taskCount)
	var wg sync.WaitGroup
	for i := 0; i < stealers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				tk, outcome := stealBlocking(q)
				if outcome == Empty {
					return
				}
				results <- tk.ID
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, taskCount)
	for id := range results {
		if seen[id] {
			t.Errorf("task %d stolen twice", id)
		}
		seen[id] = true
	}
	if len(seen) != taskCount {
		t.Errorf("stole %d distinct tasks, want %d", len(seen), taskCount)
	}
}

func TestPushWhileStealing(t *testing.T) {
	const taskCount = 100

	q := New()
	tasks := makeTasks(taskCount)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, tk := range tasks {
			q.Push(tk)
		}
	}()

	got := 0
	for got < taskCount {
		if _, outcome := q.Steal(); outcome == Success {
			got++
		}
	}
	wg.Wait()

	if q.Len() != 0 {
		t.Errorf("Len() = %d after draining, want 0", q.Len())
	}
}
