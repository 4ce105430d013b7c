// Package errors provides centralized error definitions and error handling
// utilities for the taskdist codebase. It defines the error kinds the runner
// distinguishes between, constructors with context wrapping, and re-exports
// of the standard library helpers so callers only need this import.
//
// # Error Types
//
//   - StartupError: the taskfile directory or one of its files could not be
//     read or decoded. Fatal to the whole process; nothing runs after one.
//   - CommandError: a shell command either could not be launched or ran and
//     exited non-zero. Fatal to the owning task unless the command is marked
//     ignore_failure.
//   - JoinError: a parallel command's goroutine terminated abnormally (panic)
//     instead of yielding a result. Surfaces as a fatal task error when its
//     barrier group is joined.
//
// Every error other than StartupError is scoped to a single task: it is
// caught at the worker-loop boundary, logged, and the worker moves on.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for taskfile decoding and command dispatch.
var (
	// ErrMissingName indicates a taskfile without a task name.
	ErrMissingName = New("taskfile is missing a name")
	// ErrMissingShell indicates a command entry without shell text.
	ErrMissingShell = New("command is missing shell text")
	// ErrNoCommands indicates a taskfile that declares no commands.
	ErrNoCommands = New("taskfile declares no commands")
	// ErrUnsupportedFormat indicates a taskfile extension with no codec.
	ErrUnsupportedFormat = New("unsupported taskfile format")
	// ErrUnknownCommandKind indicates a command kind the executor cannot dispatch.
	ErrUnknownCommandKind = New("unknown command kind")
)

// StartupError wraps any failure during the one-time bulk load of task
// definitions. It aborts the process before any worker consumes a task;
// partial loading is not supported.
type StartupError struct {
	// Path is the file or directory that failed, if known.
	Path string
	// Err is the underlying cause.
	Err error
}

// NewStartupError creates a StartupError for the given path.
func NewStartupError(path string, err error) *StartupError {
	return &StartupError{Path: path, Err: err}
}

// Error implements the error interface.
func (e *StartupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading tasks: %v", e.Err)
	}
	return fmt.Sprintf("loading tasks from %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StartupError) Unwrap() error {
	return e.Err
}

// CommandError reports a shell command that failed. It carries the literal
// command text and either the observed exit status (the command ran) or the
// launch failure (the interpreter could not be started). Both cases are
// handled identically by the executor.
type CommandError struct {
	// Command is the literal shell text of the failing command.
	Command string
	// ExitCode is the observed exit status. Only meaningful when Err is nil.
	ExitCode int
	// Err is the launch failure, if the interpreter never started.
	Err error
}

// NewExitError creates a CommandError for a command that ran and exited non-zero.
func NewExitError(command string, exitCode int) *CommandError {
	return &CommandError{Command: command, ExitCode: exitCode}
}

// NewLaunchError creates a CommandError for a command whose interpreter
// could not be started.
func NewLaunchError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command `%s` failed to start: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command `%s` failed: exit status %d", e.Command, e.ExitCode)
}

// Unwrap returns the launch failure, if any.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Launched reports whether the interpreter actually started. When false,
// ExitCode carries no information.
func (e *CommandError) Launched() bool {
	return e.Err == nil
}

// JoinError reports a parallel command goroutine that terminated abnormally
// rather than returning a result. It is observed when the command's barrier
// group is joined.
type JoinError struct {
	// Recovered is the recovered panic value.
	Recovered any
	// Stack is the stack trace captured at the panic site, if available.
	Stack []byte
}

// NewJoinError creates a JoinError from a recovered panic value.
func NewJoinError(recovered any, stack []byte) *JoinError {
	return &JoinError{Recovered: recovered, Stack: stack}
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	return fmt.Sprintf("parallel command crashed: %v", e.Recovered)
}
