// Package supervisor registers the game server with the process
// supervisor and writes the two helper artifacts. Helper content is built
// from structured command sequences, never interpolated text.
package supervisor

import (
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/script"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/validation"
)

// Provider compiles supervisor registration into steps.
type Provider struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewProvider creates a new supervisor Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem) *Provider {
	return &Provider{runner: runner, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "supervisor"
}

// Steps produces the unit registration and the two helper artifacts, or
// nothing when no supervisor unit is declared.
func (p *Provider) Steps(_ platform.Release, cfg *config.Config) ([]step.Step, error) {
	if cfg.Supervisor.UnitName == "" {
		return nil, nil
	}
	return []step.Step{
		NewUnitStep(cfg, p.runner, p.fs),
		NewRegisterHelperStep(cfg, p.fs),
		NewCleanupHelperStep(cfg, p.fs),
	}, nil
}

// UnitStep writes the supervisor unit and enables it.
type UnitStep struct {
	cfg    *config.Config
	id     step.StepID
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewUnitStep creates a new UnitStep.
func NewUnitStep(cfg *config.Config, runner ports.CommandRunner, fs ports.FileSystem) *UnitStep {
	return &UnitStep{
		cfg:    cfg,
		id:     step.MustNewStepID("supervisor:unit:" + cfg.Supervisor.UnitName),
		runner: runner,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *UnitStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a registered unit need not be re-registered.
func (s *UnitStep) Idempotent() bool {
	return true
}

// Apply writes the unit file and enables the service.
func (s *UnitStep) Apply(ctx step.RunContext) error {
	if err := validation.ValidateUnitName(s.cfg.Supervisor.UnitName); err != nil {
		return err
	}

	unit := ini.Empty()
	unitSection := unit.Section("Unit")
	unitSection.Key("Description").SetValue("Game server " + s.cfg.Server.Name)
	unitSection.Key("After").SetValue("network.target")

	service := unit.Section("Service")
	service.Key("User").SetValue(s.cfg.Server.User)
	service.Key("WorkingDirectory").SetValue(s.cfg.Server.InstallDir)
	service.Key("ExecStart").SetValue(filepath.Join(s.cfg.Server.InstallDir, "start.sh"))
	service.Key("Restart").SetValue("on-failure")

	unit.Section("Install").Key("WantedBy").SetValue("multi-user.target")

	if err := unit.SaveTo(s.cfg.Supervisor.UnitPath); err != nil {
		return err
	}
	return NewManager(s.runner).RegisterService(ctx.Context(), s.cfg.Supervisor.UnitName)
}

// Revert stops and deregisters the unit if it was ever written. Stop and
// disable failures are tolerated: the unit may never have started.
func (s *UnitStep) Revert(ctx step.RunContext) error {
	if !s.fs.Exists(s.cfg.Supervisor.UnitPath) {
		return nil
	}

	mgr := NewManager(s.runner)
	mgr.DeregisterService(ctx.Context(), s.cfg.Supervisor.UnitName)

	if err := s.fs.Remove(s.cfg.Supervisor.UnitPath); err != nil {
		return err
	}
	mgr.ReloadUnits(ctx.Context())
	return nil
}

// RegisterHelperStep writes the supervisor-registration helper, rendered
// from a validated command sequence.
type RegisterHelperStep struct {
	cfg *config.Config
	id  step.StepID
	fs  ports.FileSystem
}

// NewRegisterHelperStep creates a new RegisterHelperStep.
func NewRegisterHelperStep(cfg *config.Config, fs ports.FileSystem) *RegisterHelperStep {
	return &RegisterHelperStep{
		cfg: cfg,
		id:  step.MustNewStepID("supervisor:helper:" + cfg.Supervisor.UnitName),
		fs:  fs,
	}
}

// ID returns the step identifier.
func (s *RegisterHelperStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a written helper need not be rewritten.
func (s *RegisterHelperStep) Idempotent() bool {
	return true
}

// Path returns where the helper is written.
func (s *RegisterHelperStep) Path() string {
	return filepath.Join(s.cfg.Supervisor.HelperDir, s.cfg.Supervisor.UnitName+"-register.sh")
}

// Apply renders and writes the helper.
func (s *RegisterHelperStep) Apply(_ step.RunContext) error {
	sequence := RegisterSequence(s.cfg)
	content, err := sequence.Render()
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.cfg.Supervisor.HelperDir, 0o755); err != nil {
		return err
	}
	return s.fs.WriteFile(s.Path(), []byte(content), 0o755)
}

// Revert removes the helper if present.
func (s *RegisterHelperStep) Revert(_ step.RunContext) error {
	if !s.fs.Exists(s.Path()) {
		return nil
	}
	return s.fs.Remove(s.Path())
}

// RegisterSequence builds the supervisor-registration sequence.
func RegisterSequence(cfg *config.Config) script.Sequence {
	return script.Sequence{
		Name: "register " + cfg.Supervisor.UnitName + " with the process supervisor",
		Commands: []script.Command{
			{Program: "systemctl", Args: []string{"daemon-reload"}},
			{Program: "systemctl", Args: []string{"enable", "--now", cfg.Supervisor.UnitName}},
			{
				Comment:      "report current state",
				Program:      "systemctl",
				Args:         []string{"status", "--no-pager", cfg.Supervisor.UnitName},
				AllowFailure: true,
			},
		},
	}
}

// CleanupHelperStep writes the standalone cleanup helper. Its content is
// the same reverse sequence the rollback planner executes, expressed as
// nested best-effort command groups.
type CleanupHelperStep struct {
	cfg *config.Config
	id  step.StepID
	fs  ports.FileSystem
}

// NewCleanupHelperStep creates a new CleanupHelperStep.
func NewCleanupHelperStep(cfg *config.Config, fs ports.FileSystem) *CleanupHelperStep {
	return &CleanupHelperStep{
		cfg: cfg,
		id:  step.MustNewStepID("cleanup:helper:" + cfg.Supervisor.UnitName),
		fs:  fs,
	}
}

// ID returns the step identifier.
func (s *CleanupHelperStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a written helper need not be rewritten.
func (s *CleanupHelperStep) Idempotent() bool {
	return true
}

// Path returns where the helper is written.
func (s *CleanupHelperStep) Path() string {
	return filepath.Join(s.cfg.Supervisor.HelperDir, s.cfg.Supervisor.UnitName+"-cleanup.sh")
}

// Apply renders and writes the helper.
func (s *CleanupHelperStep) Apply(_ step.RunContext) error {
	sequence := CleanupSequence(s.cfg)
	content, err := sequence.Render()
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.cfg.Supervisor.HelperDir, 0o755); err != nil {
		return err
	}
	return s.fs.WriteFile(s.Path(), []byte(content), 0o755)
}

// Revert removes the helper if present.
func (s *CleanupHelperStep) Revert(_ step.RunContext) error {
	if !s.fs.Exists(s.Path()) {
		return nil
	}
	return s.fs.Remove(s.Path())
}

// CleanupSequence builds the cleanup sequence. Every command tolerates the
// thing it removes already being gone, so the helper is safe to run after
// a partial install and safe to run twice.
func CleanupSequence(cfg *config.Config) script.Sequence {
	return script.Sequence{
		Name: "tear down " + cfg.Server.Name + " provisioning",
		Children: []script.Sequence{
			{
				Name: "deregister supervisor unit",
				Commands: []script.Command{
					{Program: "systemctl", Args: []string{"disable", "--now", cfg.Supervisor.UnitName}, AllowFailure: true},
					{Program: "rm", Args: []string{"-f", cfg.Supervisor.UnitPath}},
					{Program: "systemctl", Args: []string{"daemon-reload"}, AllowFailure: true},
				},
			},
			{
				Name: "remove fetched server files",
				Commands: []script.Command{
					{Program: "rm", Args: []string{"-rf", cfg.Server.InstallDir}},
				},
			},
			{
				Name: "remove service account",
				Commands: []script.Command{
					{Program: "userdel", Args: []string{"--remove", cfg.Server.User}, AllowFailure: true},
				},
			},
			{
				Name: "clear recorded provisioning state",
				Commands: []script.Command{
					{Program: "rm", Args: []string{"-rf", cfg.StateDir}},
				},
			},
		},
	}
}
