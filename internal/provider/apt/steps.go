package apt

import (
	"fmt"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/validation"
)

// UpdateStep refreshes the package index before any installs.
type UpdateStep struct {
	id  step.StepID
	mgr *Manager
}

// NewUpdateStep creates a new UpdateStep.
func NewUpdateStep(runner ports.CommandRunner) *UpdateStep {
	return &UpdateStep{
		id:  step.MustNewStepID("apt:update"),
		mgr: NewManager(runner),
	}
}

// ID returns the step identifier.
func (s *UpdateStep) ID() step.StepID {
	return s.id
}

// Idempotent reports that a completed index refresh need not be repeated.
func (s *UpdateStep) Idempotent() bool {
	return true
}

// Apply refreshes the apt package index.
func (s *UpdateStep) Apply(ctx step.RunContext) error {
	return s.mgr.Update(ctx.Context())
}

// Revert is a no-op; refreshing the package index changes nothing to undo.
func (s *UpdateStep) Revert(_ step.RunContext) error {
	return nil
}

// PackageStep installs one system package.
type PackageStep struct {
	pkg string
	id  step.StepID
	mgr *Manager
}

// NewPackageStep creates a new PackageStep.
func NewPackageStep(pkg string, runner ports.CommandRunner) *PackageStep {
	return &PackageStep{
		pkg: pkg,
		id:  step.MustNewStepID("apt:package:" + pkg),
		mgr: NewManager(runner),
	}
}

// ID returns the step identifier.
func (s *PackageStep) ID() step.StepID {
	return s.id
}

// Idempotent reports that an installed package need not be reinstalled.
func (s *PackageStep) Idempotent() bool {
	return true
}

// Apply installs the package unless it is already present.
func (s *PackageStep) Apply(ctx step.RunContext) error {
	if err := validation.ValidatePackageName(s.pkg); err != nil {
		return fmt.Errorf("invalid package name: %w", err)
	}
	return s.mgr.EnsureInstalled(ctx.Context(), s.pkg)
}

// Revert is a no-op. System packages are shared with whatever else runs on
// the host, so rollback leaves them installed.
func (s *PackageStep) Revert(_ step.RunContext) error {
	return nil
}

// OptionalPackageStep installs a package best-effort: an unavailable
// package never fails the run.
type OptionalPackageStep struct {
	pkg string
	id  step.StepID
	mgr *Manager
}

// NewOptionalPackageStep creates a new OptionalPackageStep.
func NewOptionalPackageStep(pkg string, runner ports.CommandRunner) *OptionalPackageStep {
	return &OptionalPackageStep{
		pkg: pkg,
		id:  step.MustNewStepID("apt:optional:" + pkg),
		mgr: NewManager(runner),
	}
}

// ID returns the step identifier.
func (s *OptionalPackageStep) ID() step.StepID {
	return s.id
}

// Idempotent reports the step safe to skip once completed.
func (s *OptionalPackageStep) Idempotent() bool {
	return true
}

// Apply tries the install and falls through to success when it fails.
func (s *OptionalPackageStep) Apply(ctx step.RunContext) error {
	install := (&PackageStep{pkg: s.pkg, id: s.id, mgr: s.mgr}).Apply
	skip := func(step.RunContext) error { return nil }
	return step.Alternatives(install, skip)(ctx)
}

// Revert is a no-op, matching PackageStep.
func (s *OptionalPackageStep) Revert(_ step.RunContext) error {
	return nil
}

// PythonPackageStep installs a Python package via pip with a fallback to
// the system package when pip is unavailable or the install fails.
type PythonPackageStep struct {
	pkg    string
	id     step.StepID
	runner ports.CommandRunner
	mgr    *Manager
}

// NewPythonPackageStep creates a new PythonPackageStep.
func NewPythonPackageStep(pkg string, runner ports.CommandRunner) *PythonPackageStep {
	return &PythonPackageStep{
		pkg:    pkg,
		id:     step.MustNewStepID("apt:python:" + pkg),
		runner: runner,
		mgr:    NewManager(runner),
	}
}

// ID returns the step identifier.
func (s *PythonPackageStep) ID() step.StepID {
	return s.id
}

// Idempotent reports the step safe to skip once completed.
func (s *PythonPackageStep) Idempotent() bool {
	return true
}

// Apply tries pip first, then the distribution package.
func (s *PythonPackageStep) Apply(ctx step.RunContext) error {
	if err := validation.ValidatePackageName(s.pkg); err != nil {
		return fmt.Errorf("invalid package name: %w", err)
	}
	return step.Alternatives(s.pipInstall, s.systemInstall)(ctx)
}

// Revert is a no-op, matching PackageStep.
func (s *PythonPackageStep) Revert(_ step.RunContext) error {
	return nil
}

func (s *PythonPackageStep) pipInstall(ctx step.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "pip3", "install", s.pkg)
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("pip3 install "+s.pkg, classify(result), result.ExitCode, result.Stderr)
	}
	return nil
}

func (s *PythonPackageStep) systemInstall(ctx step.RunContext) error {
	return s.mgr.Install(ctx.Context(), "python3-"+s.pkg)
}
