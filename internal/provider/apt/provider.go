// Package apt installs the release-specific system package set.
package apt

import (
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// Provider compiles the package configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
}

// NewProvider creates a new apt Provider.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "apt"
}

// Steps produces the index refresh followed by the release package set,
// the best-effort optional packages, and the Python packages with their
// system-package fallback.
func (p *Provider) Steps(release platform.Release, cfg *config.Config) ([]step.Step, error) {
	pkgs, err := cfg.PackagesFor(release.VersionID)
	if err != nil {
		return nil, err
	}

	steps := make([]step.Step, 0, len(pkgs)+len(cfg.Packages.Optional)+len(cfg.Packages.Python)+1)
	steps = append(steps, NewUpdateStep(p.runner))

	for _, pkg := range pkgs {
		steps = append(steps, NewPackageStep(pkg, p.runner))
	}
	for _, pkg := range cfg.Packages.Optional {
		steps = append(steps, NewOptionalPackageStep(pkg, p.runner))
	}
	for _, pkg := range cfg.Packages.Python {
		steps = append(steps, NewPythonPackageStep(pkg, p.runner))
	}

	return steps, nil
}
