package main

import (
	"context"
	"os"

	"github.com/gameforge/quartermaster/internal/adapters/statefile"
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/display"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which provisioning steps have completed",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.NewLoader().Load(cfgFile)
	if err != nil {
		return err
	}

	store := statefile.NewFileStore(cfg.StateDir)
	state, err := store.Load(ctx)
	if err != nil {
		return err
	}

	display.NewRenderer(os.Stdout).State(state)
	return nil
}
