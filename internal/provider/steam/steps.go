package steam

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"

	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// maxAuthAttempts bounds interactive credential retries. Authentication is
// the one step where automatic re-prompting is appropriate: rejected
// credentials are the most common transient failure.
const maxAuthAttempts = 3

// Provider compiles the distribution-platform configuration into steps.
type Provider struct {
	client   *Client
	runner   ports.CommandRunner
	fs       ports.FileSystem
	prompter ports.Prompter
}

// NewProvider creates a new steam Provider.
func NewProvider(client *Client, runner ports.CommandRunner, fs ports.FileSystem, prompter ports.Prompter) *Provider {
	return &Provider{client: client, runner: runner, fs: fs, prompter: prompter}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "steam"
}

// Steps produces the server fetch, the plugin framework fetch, and the
// default runtime configuration write.
func (p *Provider) Steps(_ platform.Release, cfg *config.Config) ([]step.Step, error) {
	steps := []step.Step{
		NewFetchServerStep(cfg.Server, p.client, p.fs, p.prompter),
	}
	if cfg.Server.PluginManifest != "" {
		steps = append(steps, NewPluginFrameworkStep(cfg.Server, p.runner, p.fs))
	}
	steps = append(steps, NewServerConfigStep(cfg.Server, p.fs))
	return steps, nil
}

// FetchServerStep authenticates and downloads the game server binary.
type FetchServerStep struct {
	server   config.Server
	id       step.StepID
	client   *Client
	fs       ports.FileSystem
	prompter ports.Prompter
}

// NewFetchServerStep creates a new FetchServerStep.
func NewFetchServerStep(server config.Server, client *Client, fs ports.FileSystem, prompter ports.Prompter) *FetchServerStep {
	return &FetchServerStep{
		server:   server,
		id:       step.MustNewStepID("steam:fetch:" + server.Name),
		client:   client,
		fs:       fs,
		prompter: prompter,
	}
}

// ID returns the step identifier.
func (s *FetchServerStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a completed download need not be repeated.
func (s *FetchServerStep) Idempotent() bool {
	return true
}

// Apply prompts for credentials and fetches the server. Rejected
// credentials are re-prompted up to the bounded attempt budget; any other
// failure surfaces immediately.
func (s *FetchServerStep) Apply(ctx step.RunContext) error {
	var lastErr error

	for attempt := 1; attempt <= maxAuthAttempts; attempt++ {
		username, err := s.prompter.Ask("Steam username")
		if err != nil {
			return err
		}
		password, err := s.prompter.Secret("Steam password")
		if err != nil {
			return err
		}

		creds := Credentials{Username: username, Password: password}
		lastErr = s.client.AuthenticateAndFetch(ctx.Context(), creds, s.server.AppID, s.server.InstallDir)
		if lastErr == nil {
			return nil
		}

		var toolErr *step.ExternalToolError
		if errors.As(lastErr, &toolErr) && toolErr.Kind == step.ToolErrorAuthRejected {
			continue
		}
		return lastErr
	}
	return fmt.Errorf("authentication failed after %d attempts: %w", maxAuthAttempts, lastErr)
}

// Revert removes the downloaded server if present.
func (s *FetchServerStep) Revert(_ step.RunContext) error {
	if !s.fs.Exists(s.server.InstallDir) {
		return nil
	}
	return s.fs.RemoveAll(s.server.InstallDir)
}

// PluginFrameworkStep fetches the companion plugin framework, holding it
// to the pinned minimum version.
type PluginFrameworkStep struct {
	server config.Server
	id     step.StepID
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewPluginFrameworkStep creates a new PluginFrameworkStep.
func NewPluginFrameworkStep(server config.Server, runner ports.CommandRunner, fs ports.FileSystem) *PluginFrameworkStep {
	return &PluginFrameworkStep{
		server: server,
		id:     step.MustNewStepID("steam:plugins:" + server.Name),
		runner: runner,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *PluginFrameworkStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a completed download need not be repeated.
func (s *PluginFrameworkStep) Idempotent() bool {
	return true
}

// Apply resolves the published version from the manifest, rejects anything
// below the pinned minimum, and installs the framework alongside the
// server.
func (s *PluginFrameworkStep) Apply(ctx step.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "curl", "-fsSL", s.server.PluginManifest)
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("curl", step.ToolErrorNetwork, result.ExitCode, result.Stderr)
	}

	version := strings.TrimSpace(result.Stdout)
	if !semver.IsValid(version) {
		return fmt.Errorf("plugin framework manifest returned invalid version %q", version)
	}
	if s.server.PluginMinVersion != "" && semver.Compare(version, s.server.PluginMinVersion) < 0 {
		return fmt.Errorf("plugin framework %s is older than pinned minimum %s", version, s.server.PluginMinVersion)
	}

	pluginDir := s.pluginDir()
	if err := s.fs.MkdirAll(pluginDir, 0o755); err != nil {
		return err
	}

	archiveURL := strings.TrimSuffix(s.server.PluginManifest, "/latest") + "/" + version + ".tar.gz"
	archive := filepath.Join(pluginDir, "framework.tar.gz")

	fetch, err := s.runner.Run(ctx.Context(), "curl", "-fsSL", archiveURL, "-o", archive)
	if err != nil {
		return err
	}
	if !fetch.Success() {
		return step.NewExternalToolError("curl", step.ToolErrorNetwork, fetch.ExitCode, fetch.Stderr)
	}

	extract, err := s.runner.Run(ctx.Context(), "tar", "-xzf", archive, "-C", pluginDir)
	if err != nil {
		return err
	}
	if !extract.Success() {
		return step.NewExternalToolError("tar", step.ToolErrorOpaque, extract.ExitCode, extract.Stderr)
	}
	return nil
}

// Revert removes the plugin framework directory if present.
func (s *PluginFrameworkStep) Revert(_ step.RunContext) error {
	if !s.fs.Exists(s.pluginDir()) {
		return nil
	}
	return s.fs.RemoveAll(s.pluginDir())
}

func (s *PluginFrameworkStep) pluginDir() string {
	return filepath.Join(s.server.InstallDir, "plugins")
}

// serverConfig is the game server's default runtime configuration.
type serverConfig struct {
	Name    string `toml:"name"`
	DataDir string `toml:"data_dir"`
	Plugins struct {
		Enabled bool   `toml:"enabled"`
		Dir     string `toml:"dir"`
	} `toml:"plugins"`
}

// ServerConfigStep writes the default runtime configuration for the
// fetched server.
type ServerConfigStep struct {
	server config.Server
	id     step.StepID
	fs     ports.FileSystem
}

// NewServerConfigStep creates a new ServerConfigStep.
func NewServerConfigStep(server config.Server, fs ports.FileSystem) *ServerConfigStep {
	return &ServerConfigStep{
		server: server,
		id:     step.MustNewStepID("steam:config:" + server.Name),
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *ServerConfigStep) ID() step.StepID {
	return s.id
}

// Idempotent reports a written config need not be rewritten.
func (s *ServerConfigStep) Idempotent() bool {
	return true
}

// Apply renders and writes server.toml.
func (s *ServerConfigStep) Apply(_ step.RunContext) error {
	cfg := serverConfig{
		Name:    s.server.Name,
		DataDir: filepath.Join(s.server.InstallDir, "data"),
	}
	cfg.Plugins.Enabled = s.server.PluginManifest != ""
	cfg.Plugins.Dir = filepath.Join(s.server.InstallDir, "plugins")

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.fs.WriteFile(s.configPath(), data, 0o644)
}

// Revert removes server.toml if present.
func (s *ServerConfigStep) Revert(_ step.RunContext) error {
	if !s.fs.Exists(s.configPath()) {
		return nil
	}
	return s.fs.Remove(s.configPath())
}

func (s *ServerConfigStep) configPath() string {
	return filepath.Join(s.server.InstallDir, "server.toml")
}
