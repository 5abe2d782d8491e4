// Package samba exposes the server directory over the host file share.
// The share section is marker-guarded so rollback only ever deletes
// configuration this tool wrote.
package samba

import (
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/validation"
)

// markerKey and markerValue identify sections owned by this tool.
const (
	markerKey   = "comment"
	markerValue = "managed by quartermaster"
)

// Provider compiles the share configuration into steps.
type Provider struct {
	runner ports.CommandRunner
}

// NewProvider creates a new samba Provider.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "samba"
}

// Steps produces the share step, or nothing when no share is declared.
func (p *Provider) Steps(_ platform.Release, cfg *config.Config) ([]step.Step, error) {
	if cfg.Share.Name == "" {
		return nil, nil
	}
	return []step.Step{NewShareStep(cfg.Share, p.runner)}, nil
}

// ShareStep adds the marker-guarded share section to the Samba
// configuration.
type ShareStep struct {
	share  config.Share
	id     step.StepID
	runner ports.CommandRunner
}

// NewShareStep creates a new ShareStep.
func NewShareStep(share config.Share, runner ports.CommandRunner) *ShareStep {
	return &ShareStep{
		share:  share,
		id:     step.MustNewStepID("share:add:" + share.Name),
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *ShareStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a written share section need not be rewritten.
func (s *ShareStep) Idempotent() bool {
	return true
}

// Apply writes the share section. An existing section not carrying the
// marker belongs to the operator and is never touched.
func (s *ShareStep) Apply(ctx step.RunContext) error {
	if err := validation.ValidateShareName(s.share.Name); err != nil {
		return err
	}
	if err := NewConfigurator().AddShare(s.share); err != nil {
		return err
	}
	return s.reload(ctx)
}

// Revert deletes the share section only when the marker matches, then
// reloads the share daemon best-effort.
func (s *ShareStep) Revert(ctx step.RunContext) error {
	if err := NewConfigurator().RemoveShare(s.share); err != nil {
		return err
	}
	return s.reload(ctx)
}

// reload asks the share daemon to pick up the new configuration. The
// reload is best-effort: a host without a running daemon is fine.
func (s *ShareStep) reload(ctx step.RunContext) error {
	skip := func(step.RunContext) error { return nil }
	return step.Alternatives(
		s.command("smbcontrol", "all", "reload-config"),
		s.command("systemctl", "reload", "smbd"),
		skip,
	)(ctx)
}

func (s *ShareStep) command(program string, args ...string) step.Action {
	return func(ctx step.RunContext) error {
		result, err := s.runner.Run(ctx.Context(), program, args...)
		if err != nil {
			return err
		}
		if !result.Success() {
			return step.NewExternalToolError(program, step.ToolErrorOpaque, result.ExitCode, result.Stderr)
		}
		return nil
	}
}
