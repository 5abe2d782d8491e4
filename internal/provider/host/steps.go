// Package host covers small host-level settings, currently the timezone.
package host

import (
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/validation"
)

// Provider compiles host settings into steps.
type Provider struct {
	runner   ports.CommandRunner
	prompter ports.Prompter
}

// NewProvider creates a new host Provider.
func NewProvider(runner ports.CommandRunner, prompter ports.Prompter) *Provider {
	return &Provider{runner: runner, prompter: prompter}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "host"
}

// Steps produces the timezone step.
func (p *Provider) Steps(_ platform.Release, cfg *config.Config) ([]step.Step, error) {
	return []step.Step{NewTimezoneStep(cfg.Timezone, p.runner, p.prompter)}, nil
}

// TimezoneStep configures the host timezone. When the manifest leaves the
// timezone empty the operator is asked once; an empty answer keeps the
// host default.
type TimezoneStep struct {
	timezone string
	id       step.StepID
	runner   ports.CommandRunner
	prompter ports.Prompter
}

// NewTimezoneStep creates a new TimezoneStep.
func NewTimezoneStep(timezone string, runner ports.CommandRunner, prompter ports.Prompter) *TimezoneStep {
	return &TimezoneStep{
		timezone: timezone,
		id:       step.MustNewStepID("host:timezone"),
		runner:   runner,
		prompter: prompter,
	}
}

// ID returns the step identifier.
func (s *TimezoneStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a configured timezone need not be reconfigured.
func (s *TimezoneStep) Idempotent() bool {
	return true
}

// Apply sets the timezone via timedatectl, falling back to the zoneinfo
// symlink on hosts without it.
func (s *TimezoneStep) Apply(ctx step.RunContext) error {
	tz := s.timezone
	if tz == "" {
		answer, err := s.prompter.AskOptional("Timezone (empty keeps host default)")
		if err != nil {
			return err
		}
		tz = answer
	}
	if tz == "" {
		return nil
	}
	if err := validation.ValidateTimezone(tz); err != nil {
		return err
	}

	return step.Alternatives(
		s.command("timedatectl", "set-timezone", tz),
		s.command("ln", "-sf", "/usr/share/zoneinfo/"+tz, "/etc/localtime"),
	)(ctx)
}

// Revert is a no-op; the previous timezone is not recorded.
func (s *TimezoneStep) Revert(_ step.RunContext) error {
	return nil
}

func (s *TimezoneStep) command(program string, args ...string) step.Action {
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
