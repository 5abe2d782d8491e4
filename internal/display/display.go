// Package display renders run, rollback, and status output for the
// terminal.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gameforge/quartermaster/internal/domain/execution"
)

// Theme colors.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader  = lipgloss.NewStyle().Bold(true)
)

// Renderer writes human-readable run output.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// RunResults renders the outcome of a provisioning run.
func (r *Renderer) RunResults(results []execution.StepResult) {
	fmt.Fprintln(r.out, styleHeader.Render("Provisioning steps"))
	for _, result := range results {
		switch result.Status() {
		case execution.StatusApplied:
			fmt.Fprintf(r.out, "  %s %s %s\n",
				styleSuccess.Render("✓"),
				result.StepID().String(),
				styleMuted.Render("("+result.Duration().Round(time.Millisecond).String()+")"))
		case execution.StatusWouldApply:
			fmt.Fprintf(r.out, "  %s %s %s\n",
				styleMuted.Render("→"),
				result.StepID().String(),
				styleMuted.Render("(would apply)"))
		case execution.StatusSkipped:
			fmt.Fprintf(r.out, "  %s %s %s\n",
				styleMuted.Render("•"),
				styleMuted.Render(result.StepID().String()),
				styleMuted.Render("(already done)"))
		case execution.StatusFailed:
			fmt.Fprintf(r.out, "  %s %s\n      %s\n",
				styleError.Render("✗"),
				result.StepID().String(),
				styleError.Render(fmt.Sprintf("%v", result.Error())))
		}
	}
}

// RollbackResults renders the outcome of a rollback.
func (r *Renderer) RollbackResults(results []execution.RevertResult) {
	fmt.Fprintln(r.out, styleHeader.Render("Rollback"))
	for _, result := range results {
		if result.Success() {
			fmt.Fprintf(r.out, "  %s reverted %s\n",
				styleSuccess.Render("✓"), result.StepID.String())
			continue
		}
		fmt.Fprintf(r.out, "  %s %s %s\n",
			styleWarning.Render("!"),
			result.StepID.String(),
			styleWarning.Render(fmt.Sprintf("(%v)", result.Err)))
	}
}

// State renders the persisted execution state.
func (r *Renderer) State(state *execution.State) {
	if state.IsEmpty() {
		fmt.Fprintln(r.out, "No completed steps recorded.")
		return
	}
	fmt.Fprintln(r.out, styleHeader.Render("Completed steps (run "+shortID(state.RunID())+")"))
	for _, id := range state.Completed() {
		fmt.Fprintf(r.out, "  %s %s\n", styleSuccess.Render("✓"), id.String())
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
