// Package sourcebuild compiles the messaging library from source, since no
// distribution package carries it.
package sourcebuild

import (
	"fmt"
	"path/filepath"

	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// Provider compiles the build configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewProvider creates a new sourcebuild Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem) *Provider {
	return &Provider{runner: runner, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sourcebuild"
}

// Steps produces the single build step, or nothing when the manifest
// declares no source build.
func (p *Provider) Steps(_ platform.Release, cfg *config.Config) ([]step.Step, error) {
	if cfg.Build.Name == "" {
		return nil, nil
	}
	return []step.Step{NewBuildStep(cfg.Build, p.runner, p.fs)}, nil
}

// BuildStep downloads, extracts, compiles, and installs a library from
// source.
type BuildStep struct {
	build  config.Build
	id     step.StepID
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewBuildStep creates a new BuildStep.
func NewBuildStep(build config.Build, runner ports.CommandRunner, fs ports.FileSystem) *BuildStep {
	return &BuildStep{
		build:  build,
		id:     step.MustNewStepID("build:" + build.Name),
		runner: runner,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *BuildStep) ID() step.StepID {
	return s.id
}

// Idempotent reports the build safe to skip once the library is installed.
func (s *BuildStep) Idempotent() bool {
	return true
}

// Apply runs the download/extract/compile/install sequence. The download
// tries curl and falls back to wget.
func (s *BuildStep) Apply(ctx step.RunContext) error {
	if s.build.InstallLib != "" && s.fs.Exists(s.build.InstallLib) {
		return nil
	}

	archive := filepath.Join(s.build.WorkDir, s.build.Name+".tar.gz")
	if err := s.fs.MkdirAll(s.build.WorkDir, 0o755); err != nil {
		return err
	}

	fetch := step.Alternatives(
		s.command("curl", "-fsSL", s.build.URL, "-o", archive),
		s.command("wget", "-q", s.build.URL, "-O", archive),
	)
	if err := fetch(ctx); err != nil {
		return fmt.Errorf("fetch %s: %w", s.build.Name, err)
	}

	sequence := []step.Action{
		s.command("tar", "-xzf", archive, "-C", s.build.WorkDir, "--strip-components=1"),
		s.command("make", "-C", s.build.WorkDir),
		s.command("make", "-C", s.build.WorkDir, "install"),
	}
	for _, action := range sequence {
		if err := action(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Revert removes the build tree and the installed library if present.
func (s *BuildStep) Revert(_ step.RunContext) error {
	if s.build.InstallLib != "" && s.fs.Exists(s.build.InstallLib) {
		if err := s.fs.Remove(s.build.InstallLib); err != nil {
			return err
		}
	}
	if s.fs.Exists(s.build.WorkDir) {
		return s.fs.RemoveAll(s.build.WorkDir)
	}
	return nil
}

func (s *BuildStep) command(program string, args ...string) step.Action {
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
