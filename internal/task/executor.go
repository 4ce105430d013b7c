package task

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sourcegraph/conc"

	"github.com/taskdist/taskdist/internal/errors"
	"github.com/taskdist/taskdist/internal/logging"
)

// defaultShell is the interpreter commands are passed to.
const defaultShell = "sh"

// Executor runs a task to completion on the calling goroutine: the repeat
// loop, the ordered command sequence, and the joining of parallel barrier
// groups all happen synchronously from the worker that captured the task.
type Executor struct {
	log   *logging.Logger
	shell string
}

// NewExecutor creates an Executor that logs through log and runs commands
// with the default shell interpreter.
func NewExecutor(log *logging.Logger) *Executor {
	return &Executor{log: log, shell: defaultShell}
}

// Run executes the task's full repeat budget. A repeat count of 0 iterates
// forever. The first fatal command error aborts the task: remaining
// iterations are skipped and the error is returned to the worker loop.
func (e *Executor) Run(t *Task) error {
	log := e.log.WithTask(t.ID, t.Name)

	for iteration := uint(0); t.Repeat == 0 || iteration < t.Repeat; iteration++ {
		if err := e.runCommands(log, t.Commands); err != nil {
			return err
		}
	}
	return nil
}

// runCommands executes one iteration of the command sequence in declared
// order. Adjacent parallel commands accumulate into a barrier group; the
// group is joined before the next sequential command starts and again at
// the end of the list, so no command goroutine outlives the iteration.
func (e *Executor) runCommands(log *logging.Logger, commands []Command) error {
	group := newBarrierGroup()

	for _, cmd := range commands {
		switch cmd.Kind {
		case KindShell:
			if cmd.Parallel {
				log.Info("running command in parallel", "command", cmd.Shell)
				group.spawn(cmd, func(cmd Command) error {
					return e.runCommand(log, cmd)
				})
				continue
			}

			// A sequential command is a barrier: previously launched
			// parallel commands must settle before it starts.
			if err := group.join(); err != nil {
				return err
			}
			if err := e.runCommand(log, cmd); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s", errors.ErrUnknownCommandKind, cmd.Kind)
		}
	}

	return group.join()
}

// runCommand runs one command and applies its failure policy: an ignored
// failure is logged and treated as success.
func (e *Executor) runCommand(log *logging.Logger, cmd Command) error {
	err := e.runShell(log, cmd.Shell)
	if err != nil && cmd.IgnoreFailure {
		log.Warn("ignoring command failure", "command", cmd.Shell, "error", err)
		return nil
	}
	return err
}

// runShell invokes the interpreter and blocks until it exits. A non-zero
// exit status or a failure to launch the interpreter both come back as a
// CommandError carrying the literal command text.
func (e *Executor) runShell(log *logging.Logger, command string) error {
	log.Info("running command", "command", command)

	cmd := exec.Command(e.shell, "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	log.Info("finished command", "command", command)

	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.NewExitError(command, exitErr.ExitCode())
	}
	return errors.NewLaunchError(command, err)
}

// pendingCommand is one launched parallel command awaiting its join.
// The owning goroutine writes err exactly once before the barrier's
// WaitGroup releases the join.
type pendingCommand struct {
	cmd Command
	err error
}

// barrierGroup is a run of adjacent parallel commands spawned into a
// structured group and joined together at the next sequential boundary.
type barrierGroup struct {
	wg      conc.WaitGroup
	pending []*pendingCommand
}

func newBarrierGroup() *barrierGroup {
	return &barrierGroup{}
}

// spawn launches cmd on its own goroutine and adds it to the group.
func (g *barrierGroup) spawn(cmd Command, run func(Command) error) {
	p := &pendingCommand{cmd: cmd}
	g.pending = append(g.pending, p)
	g.wg.Go(func() {
		p.err = run(p.cmd)
	})
}

// join waits for every launched command in the group and resets it. A
// goroutine that terminated abnormally surfaces as a JoinError; otherwise
// the first failure in launch order wins. Completion order within the
// group is unspecified.
func (g *barrierGroup) join() error {
	if len(g.pending) == 0 {
		return nil
	}

	recovered := g.wg.WaitAndRecover()
	pending := g.pending
	g.pending = nil

	if recovered != nil {
		return errors.NewJoinError(recovered.Value, recovered.Stack)
	}
	for _, p := range pending {
		if p.err != nil {
			return p.err
		}
	}
	return nil
}
