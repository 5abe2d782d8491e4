package main

import (
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
	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the completed provisioning steps",
	Long: `Rollback reverts completed steps in reverse order.

Reverts are best-effort: a failing revert is reported as a warning and the
remaining steps are still attempted. System packages installed during
provisioning are left in place.`,
	RunE: runRollback,
}

var rollbackOSRelease string

func init() {
	rootCmd.AddCommand(rollbackCmd)

	rollbackCmd.Flags().StringVar(&rollbackOSRelease, "os-release", platform.DefaultOSReleasePath, "path to the os-release file")
	_ = rollbackCmd.Flags().MarkHidden("os-release")
}

func runRollback(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := platform.RequireRoot(); err != nil {
		return err
	}

	cfg, err := config.NewLoader().Load(cfgFile)
	if err != nil {
		return err
	}

	release, err := platform.Detect(rollbackOSRelease)
	if err != nil {
		return err
	}

	store := statefile.NewFileStore(cfg.StateDir)
	state, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if state.IsEmpty() {
		fmt.Println("Nothing to roll back.")
		return nil
	}

	prompter := newPrompter()
	if !yesFlag {
		ok, err := prompter.Confirm(fmt.Sprintf("Roll back %d completed step(s)?", state.Len()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Rollback cancelled.")
			return nil
		}
	}

	logger, closer := newAuditLogger(cfg.StateDir, false)
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	registry, err := buildRegistry(release, cfg, newRunner(), newFileSystem(), prompter)
	if err != nil {
		return err
	}

	planner := execution.NewRollbackPlanner(store, logger)
	results, rbErr := planner.Rollback(ctx, registry, state)
	display.NewRenderer(os.Stdout).RollbackResults(results)

	var partial *execution.PartialFailure
	if errors.As(rbErr, &partial) {
		// Partial failures are warnings: the host is usable, some
		// resources may need manual cleanup.
		for _, w := range partial.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: revert of %s failed: %v\n", w.StepID, w.Err)
		}
		return nil
	}
	if rbErr != nil {
		return rbErr
	}

	fmt.Println("\nRollback complete.")
	return nil
}
