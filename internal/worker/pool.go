// Package worker provides the fixed pool of long-lived workers that drain
// the run queue. Each worker loops forever: steal a task, execute it to
// completion, log the outcome, and go back for the next one. A task's
// failure never escapes this loop; there is no shutdown path — workers run
// until the process terminates.
package worker

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc/panics"

	"github.com/taskdist/taskdist/internal/logging"
	"github.com/taskdist/taskdist/internal/runqueue"
	"github.com/taskdist/taskdist/internal/task"
)

// Runner executes a single captured task synchronously, blocking for the
// task's full duration including every repeat iteration and the joining of
// its parallel commands.
type Runner interface {
	Run(t *task.Task) error
}

// Pool is a fixed set of worker goroutines sharing one run queue.
type Pool struct {
	size   int
	queue  *runqueue.Queue
	runner Runner
	log    *logging.Logger
}

// NewPool creates a Pool of size workers draining queue through runner.
func NewPool(size int, queue *runqueue.Queue, runner Runner, log *logging.Logger) *Pool {
	return &Pool{
		size:   size,
		queue:  queue,
		runner: runner,
		log:    log,
	}
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Start launches the pool's workers. It returns once all workers are
// started; the workers themselves never return.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		name := fmt.Sprintf("worker-%d", i)
		go p.stealLoop(name)
		p.log.Info("started worker", "worker", name)
	}
}

// stealLoop is one worker's unbounded take-execute loop.
func (p *Pool) stealLoop(name string) {
	log := p.log.WithWorker(name)

	wait := newStealBackoff()
	waitLogged := false

	for {
		t, outcome := p.queue.Steal()
		switch outcome {
		case runqueue.Retry:
			// Transient conflict; the queue is not known to be empty.
			continue

		case runqueue.Empty:
			// Log once per empty streak, then back off so an idle
			// worker does not burn a core.
			if !waitLogged {
				log.Warn("waiting for tasks")
				waitLogged = true
			}
			time.Sleep(wait.NextBackOff())

		case runqueue.Success:
			wait.Reset()
			waitLogged = false
			p.execute(log, t)
		}
	}
}

// execute runs one captured task and logs its outcome. Errors and panics
// are contained here: whatever the task does, the worker survives to steal
// again.
func (p *Pool) execute(log *logging.Logger, t *task.Task) {
	log.Info("running task", "task_id", t.ID, "task", t.Name)

	var err error
	if recovered := panics.Try(func() {
		err = p.runner.Run(t)
	}); recovered != nil {
		log.Error("task crashed", "task_id", t.ID, "task", t.Name, "panic", recovered.Value)
		return
	}

	if err != nil {
		log.Error("task failed", "task_id", t.ID, "task", t.Name, "error", err)
		return
	}
	log.Info("finished task", "task_id", t.ID, "task", t.Name)
}

// newStealBackoff builds the empty-queue wait strategy: a short first
// delay that grows exponentially to a bounded ceiling and never gives up.
func newStealBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 0 // keep polling forever; tasks may still arrive
	return b
}
