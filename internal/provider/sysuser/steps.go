// Package sysuser creates the service account the game server runs under.
package sysuser

import (
	"fmt"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/validation"
)

// Provider compiles the service account configuration into steps.
type Provider struct {
	runner   ports.CommandRunner
	fs       ports.FileSystem
	prompter ports.Prompter
}

// NewProvider creates a new sysuser Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem, prompter ports.Prompter) *Provider {
	return &Provider{runner: runner, fs: fs, prompter: prompter}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sysuser"
}

// Steps produces the user creation step and, when the manifest carries
// public key material, the authorized-key installation step.
func (p *Provider) Steps(_ platform.Release, cfg *config.Config) ([]step.Step, error) {
	steps := []step.Step{NewCreateUserStep(cfg.Server, p.runner, p.prompter)}
	if cfg.Server.PublicKey != "" {
		steps = append(steps, NewAuthorizedKeyStep(cfg.Server, p.runner, p.fs))
	}
	return steps, nil
}

// CreateUserStep creates the service account with a home directory.
type CreateUserStep struct {
	server   config.Server
	id       step.StepID
	runner   ports.CommandRunner
	prompter ports.Prompter
}

// NewCreateUserStep creates a new CreateUserStep.
func NewCreateUserStep(server config.Server, runner ports.CommandRunner, prompter ports.Prompter) *CreateUserStep {
	return &CreateUserStep{
		server:   server,
		id:       step.MustNewStepID("user:create:" + server.User),
		runner:   runner,
		prompter: prompter,
	}
}

// ID returns the step identifier.
func (s *CreateUserStep) ID() step.StepID {
	return s.id
}

// Idempotent reports an existing account need not be recreated.
func (s *CreateUserStep) Idempotent() bool {
	return true
}

// Apply creates the account unless it already exists.
func (s *CreateUserStep) Apply(ctx step.RunContext) error {
	if err := validation.ValidateUsername(s.server.User); err != nil {
		return err
	}

	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	result, err := s.runner.Run(ctx.Context(), "useradd",
		"--create-home", "--home-dir", s.server.Home, "--shell", "/bin/bash", s.server.User)
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("useradd "+s.server.User, step.ToolErrorOpaque, result.ExitCode, result.Stderr)
	}
	return nil
}

// Revert removes the account and its home directory, but only if the
// account is present and the operator confirms with the exact literal
// "yes". A declined confirmation leaves the system unchanged.
func (s *CreateUserStep) Revert(ctx step.RunContext) error {
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	confirmed, err := s.prompter.ConfirmDestructive(
		fmt.Sprintf("Remove user %q and all of its data", s.server.User))
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	result, err := s.runner.Run(ctx.Context(), "userdel", "--remove", s.server.User)
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("userdel "+s.server.User, step.ToolErrorOpaque, result.ExitCode, result.Stderr)
	}
	return nil
}

func (s *CreateUserStep) exists(ctx step.RunContext) (bool, error) {
	result, err := s.runner.Run(ctx.Context(), "getent", "passwd", s.server.User)
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// AuthorizedKeyStep installs the operator-supplied public key for the
// service account. The key material is validated before anything touches
// the filesystem.
type AuthorizedKeyStep struct {
	server config.Server
	id     step.StepID
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewAuthorizedKeyStep creates a new AuthorizedKeyStep.
func NewAuthorizedKeyStep(server config.Server, runner ports.CommandRunner, fs ports.FileSystem) *AuthorizedKeyStep {
	return &AuthorizedKeyStep{
		server: server,
		id:     step.MustNewStepID("user:authorized-key:" + server.User),
		runner: runner,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *AuthorizedKeyStep) ID() step.StepID {
	return s.id
}

// Idempotent reports an installed key need not be rewritten.
func (s *AuthorizedKeyStep) Idempotent() bool {
	return true
}

// Apply validates and installs the public key.
func (s *AuthorizedKeyStep) Apply(ctx step.RunContext) error {
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(s.server.PublicKey)); err != nil {
		return fmt.Errorf("invalid public key material: %w", err)
	}

	sshDir := filepath.Join(s.server.Home, ".ssh")
	if err := s.fs.MkdirAll(sshDir, 0o700); err != nil {
		return err
	}
	keyPath := filepath.Join(sshDir, "authorized_keys")
	if err := s.fs.WriteFile(keyPath, []byte(s.server.PublicKey+"\n"), 0o600); err != nil {
		return err
	}

	result, err := s.runner.Run(ctx.Context(), "chown", "-R",
		s.server.User+":"+s.server.User, sshDir)
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("chown", step.ToolErrorOpaque, result.ExitCode, result.Stderr)
	}
	return nil
}

// Revert removes the authorized_keys file if present.
func (s *AuthorizedKeyStep) Revert(_ step.RunContext) error {
	keyPath := filepath.Join(s.server.Home, ".ssh", "authorized_keys")
	if !s.fs.Exists(keyPath) {
		return nil
	}
	return s.fs.Remove(keyPath)
}
