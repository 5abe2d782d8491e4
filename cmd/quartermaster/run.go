package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gameforge/quartermaster/internal/adapters/statefile"
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/display"
	"github.com/gameforge/quartermaster/internal/domain/execution"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision the host from the manifest",
	Long: `Run executes every provisioning step in order.

Steps already recorded as completed by a previous run are skipped, so an
interrupted run can be resumed by running the command again. Execution
halts at the first failing step; quartermaster then offers to roll back
the steps that did complete.`,
	RunE: runRun,
}

var (
	runDryRun    bool
	runOSRelease string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show what would be done without making changes")
	runCmd.Flags().StringVar(&runOSRelease, "os-release", platform.DefaultOSReleasePath, "path to the os-release file")
	_ = runCmd.Flags().MarkHidden("os-release")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !runDryRun {
		if err := platform.RequireRoot(); err != nil {
			return err
		}
	}

	cfg, err := config.NewLoader().Load(cfgFile)
	if err != nil {
		return err
	}

	release, err := platform.Detect(runOSRelease)
	if err != nil {
		return err
	}

	logger, closer := newAuditLogger(cfg.StateDir, runDryRun)
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	logger.Info(ctx, "provisioning host", ports.F("release", release.String()), ports.F("server", cfg.Server.Name))

	runner := newRunner()
	fs := newFileSystem()
	prompter := newPrompter()

	registry, err := buildRegistry(release, cfg, runner, fs, prompter)
	if err != nil {
		return err
	}

	store := statefile.NewFileStore(cfg.StateDir)
	state, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if !state.IsEmpty() {
		logger.Info(ctx, "resuming previous run",
			ports.F("run_id", state.RunID()),
			ports.F("completed", state.Len()))
	}

	executor := execution.NewExecutor(store, logger).WithDryRun(runDryRun)
	results, runErr := executor.Run(ctx, registry, state)

	renderer := display.NewRenderer(os.Stdout)
	renderer.RunResults(results)

	if runErr == nil {
		if runDryRun {
			fmt.Println("\n[Dry run - no changes made]")
		} else {
			fmt.Printf("\nHost provisioned. %d step(s) completed.\n", state.Len())
		}
		return nil
	}

	if errors.Is(runErr, execution.ErrAborted) {
		return runErr
	}

	return offerRollback(ctx, registry, store, state, prompter, logger, runErr)
}

// offerRollback asks whether the completed steps should be reverted after a
// failed run. The original run error is always returned so the process exits
// non-zero even when the rollback itself succeeds.
func offerRollback(ctx context.Context, registry *step.Registry, store execution.Store, state *execution.State, prompter ports.Prompter, logger ports.Logger, runErr error) error {
	if state.IsEmpty() || runDryRun {
		return runErr
	}

	rollback := yesFlag
	if !rollback {
		ok, err := prompter.Confirm(fmt.Sprintf("Roll back the %d completed step(s)?", state.Len()))
		if err != nil {
			return runErr
		}
		rollback = ok
	}
	if !rollback {
		fmt.Println("Leaving completed steps in place. Run 'quartermaster rollback' to revert later.")
		return runErr
	}

	planner := execution.NewRollbackPlanner(store, logger)
	results, rbErr := planner.Rollback(ctx, registry, state)
	display.NewRenderer(os.Stdout).RollbackResults(results)

	var partial *execution.PartialFailure
	if errors.As(rbErr, &partial) {
		for _, w := range partial.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: revert of %s failed: %v\n", w.StepID, w.Err)
		}
	}
	return runErr
}
