package cmd

import (
	"github.com/spf13/cobra"

	"github.com/taskdist/taskdist/internal/config"
	"github.com/taskdist/taskdist/internal/logging"
	"github.com/taskdist/taskdist/internal/runqueue"
	"github.com/taskdist/taskdist/internal/task"
	"github.com/taskdist/taskdist/internal/taskfile"
	"github.com/taskdist/taskdist/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load taskfiles and run them on the worker pool",
	Long: `Run starts the worker pool, loads every taskfile from the configured
taskfile directory, and feeds the resulting tasks to the workers through
the shared run queue. Workers keep running until the process is stopped.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, warnings, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Close()

	for _, warning := range warnings {
		log.Warn("configuration warning", "field", warning.Field, "detail", warning.Message)
	}

	log.Info("reading taskfiles", "dir", cfg.Taskfiles.Dir)

	// Definitions load before any worker starts: a single bad taskfile
	// aborts the whole startup rather than running a partial batch.
	defs, err := taskfile.LoadDir(cfg.Taskfiles.Dir)
	if err != nil {
		log.Error("fatal error", "error", err)
		return err
	}

	queue := runqueue.New()
	executor := task.NewExecutor(log)
	pool := worker.NewPool(cfg.Workers, queue, executor, log)
	pool.Start()

	seq := task.NewSequence()
	for _, def := range defs {
		t := task.New(def, seq)
		log.Info("creating task", "task_id", t.ID, "task", t.Name)
		queue.Push(t)
	}

	if seq.Count() == 0 {
		log.Warn("no tasks found", "dir", cfg.Taskfiles.Dir)
	}

	// The workers have no shutdown path in this design; block until the
	// process is terminated.
	select {}
}
