package step

import (
	"fmt"
	"strings"
)

// Error codes for provisioning failures.
const (
	ErrCodePrecondition    = "PRECONDITION_FAILED"
	ErrCodeStepFailed      = "STEP_FAILED"
	ErrCodePromptAbandoned = "PROMPT_ABANDONED"
	ErrCodeExternalTool    = "EXTERNAL_TOOL"
	ErrCodeStepDuplicate   = "STEP_DUPLICATE"
)

// StepError represents a provisioning failure with enough context for the
// operator to act on: the failing step, a classification code, and the
// underlying cause.
type StepError struct {
	Code       string // Error code for categorization
	Message    string // User-friendly error message
	StepID     string // Step ID if applicable
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("step %q: %s", e.StepID, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *StepError) Format() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.StepID != "" {
		b.WriteString(fmt.Sprintf("\n  Step: %s", e.StepID))
	}
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  Suggestion: %s", e.Suggestion))
	}
	if e.Underlying != nil {
		b.WriteString(fmt.Sprintf("\n  Cause: %s", e.Underlying.Error()))
	}

	return b.String()
}

// WithSuggestion returns a copy of the StepError with suggestion set.
func (e *StepError) WithSuggestion(suggestion string) *StepError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// NewPreconditionError creates a fatal, non-retryable error for a missing
// prior state (e.g., required privilege or unsupported OS release).
func NewPreconditionError(message string) *StepError {
	return &StepError{
		Code:    ErrCodePrecondition,
		Message: message,
	}
}

// NewStepFailure creates an error for a failed step apply.
// Forward progress halts; the run offers rollback.
func NewStepFailure(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeStepFailed,
		Message:    "step failed to apply",
		StepID:     stepID,
		Underlying: err,
	}
}

// NewPromptAbandonedError creates an error for interactive input that
// exhausted its retry budget. Treated as a step failure for its step.
func NewPromptAbandonedError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodePromptAbandoned,
		Message:    "interactive input abandoned",
		StepID:     stepID,
		Underlying: err,
	}
}

// ToolErrorKind is the adapter's best-effort classification of an external
// tool failure.
type ToolErrorKind string

const (
	// ToolErrorAuthRejected indicates the external service rejected the
	// supplied credentials.
	ToolErrorAuthRejected ToolErrorKind = "auth-rejected"
	// ToolErrorNetwork indicates the external service was unreachable.
	ToolErrorNetwork ToolErrorKind = "network-unreachable"
	// ToolErrorOpaque indicates the tool output allowed no classification.
	ToolErrorOpaque ToolErrorKind = "opaque"
)

// ExternalToolError represents a non-zero exit from an adapter-wrapped
// external command. The raw diagnostic is attached; the orchestrator never
// inspects tool output itself.
type ExternalToolError struct {
	Tool       string
	Kind       ToolErrorKind
	ExitCode   int
	Diagnostic string
}

// Error returns the formatted error message.
func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s failed (%s, exit %d)", e.Tool, e.Kind, e.ExitCode)
	if e.Diagnostic != "" {
		msg += ": " + strings.TrimSpace(e.Diagnostic)
	}
	return msg
}

// NewExternalToolError creates an ExternalToolError.
func NewExternalToolError(tool string, kind ToolErrorKind, exitCode int, diagnostic string) *ExternalToolError {
	return &ExternalToolError{
		Tool:       tool,
		Kind:       kind,
		ExitCode:   exitCode,
		Diagnostic: diagnostic,
	}
}
