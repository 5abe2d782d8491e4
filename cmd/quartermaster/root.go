package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	yesFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "quartermaster",
	Short: "Provision a dedicated game server host",
	Long: `Quartermaster turns a bare Debian host into a running dedicated game server.

It walks an ordered sequence of provisioning steps (packages, service user,
file share, server download, supervisor unit), records each completed step,
and can resume an interrupted run or roll the host back to its prior state.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "quartermaster.yaml", "path to the host manifest")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "auto-confirm non-destructive prompts; destructive operations still require typing \"yes\"")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var stepErr *step.StepError
	if errors.As(err, &stepErr) {
		msg := stepErr.Message
		if stepErr.StepID != "" {
			msg += fmt.Sprintf(" (step %s)", stepErr.StepID)
		}
		if stepErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", stepErr.Suggestion)
		}
		if verbose && stepErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", stepErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	// Complete --config with YAML files
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})
}
