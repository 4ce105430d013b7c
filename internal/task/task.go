// Package task defines the immutable unit of work the runner schedules and
// the executor that runs it. A Task is built once from a taskfile definition,
// handed to the run queue, and owned by exactly one worker for its entire
// execution.
package task

import (
	"fmt"
	"sync/atomic"

	"github.com/taskdist/taskdist/internal/taskfile"
)

// Sequence issues unique, strictly increasing task identifiers starting at 0.
// It is owned by the one-time bulk load and passed into the factory; it is
// safe for concurrent use, though the load uses a single producer.
type Sequence struct {
	next atomic.Int64
}

// NewSequence creates a Sequence whose first identifier is 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next identifier and advances the sequence.
func (s *Sequence) Next() int64 {
	return s.next.Add(1) - 1
}

// Count returns how many identifiers have been issued so far.
func (s *Sequence) Count() int64 {
	return s.next.Load()
}

// Kind discriminates command variants. Only shell commands exist today;
// the executor dispatches on Kind so future variants are additive.
type Kind int

const (
	// KindShell runs the command text through the shell interpreter.
	KindShell Kind = iota
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindShell:
		return "shell"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is one step of a task: a tagged variant of the supported command
// kinds plus the failure-tolerance and concurrency-mode flags.
type Command struct {
	// Kind selects the command variant.
	Kind Kind

	// Shell is the command text for KindShell.
	Shell string

	// IgnoreFailure logs a failed run of this command and treats it as
	// success for control-flow purposes.
	IgnoreFailure bool

	// Parallel launches this command on its own goroutine without blocking
	// the commands after it.
	Parallel bool
}

// Task is an immutable, uniquely identified unit of work. No field is
// mutated once the task is handed to the run queue, so reading them from
// the executing worker or its parallel command goroutines needs no
// synchronization.
type Task struct {
	// ID is unique, assigned once, strictly increasing from 0 in
	// submission order, and never reused.
	ID int64

	// Name is the taskfile's declared name.
	Name string

	// Repeat is how many times the command sequence runs; 0 means forever.
	Repeat uint

	// Commands is the ordered command sequence.
	Commands []Command
}

// New builds a Task from a definition, drawing its identifier from seq.
// The command sequence is copied, so later mutation of the definition does
// not reach the task.
func New(def *taskfile.Definition, seq *Sequence) *Task {
	commands := make([]Command, len(def.Commands))
	for i, cmd := range def.Commands {
		commands[i] = Command{
			Kind:          KindShell,
			Shell:         cmd.Shell,
			IgnoreFailure: cmd.IgnoreFailure,
			Parallel:      cmd.Parallel,
		}
	}

	return &Task{
		ID:       seq.Next(),
		Name:     def.Name,
		Repeat:   def.RepeatCount(),
		Commands: commands,
	}
}
