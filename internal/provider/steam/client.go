// Package steam authenticates against the distribution platform and
// fetches the game server and its plugin framework.
package steam

import (
	"context"
	"strings"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// Credentials carries distribution-platform credentials. They are held in
// memory only, passed by value, and never persisted or logged.
type Credentials struct {
	Username string
	Password string
}

// Client wraps the steamcmd tool behind a narrow interface. Exit codes and
// output are translated into the error taxonomy here; callers never see
// raw tool output.
type Client struct {
	runner  ports.CommandRunner
	command string
}

// NewClient creates a Client using the given runner.
func NewClient(runner ports.CommandRunner) *Client {
	return &Client{
		runner:  runner,
		command: "steamcmd",
	}
}

// AuthenticateAndFetch logs in with the supplied credentials and installs
// the application into installDir.
func (c *Client) AuthenticateAndFetch(ctx context.Context, creds Credentials, appID, installDir string) error {
	result, err := c.runner.Run(ctx, c.command,
		"+force_install_dir", installDir,
		"+login", creds.Username, creds.Password,
		"+app_update", appID, "validate",
		"+quit")
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError(c.command, classify(result), result.ExitCode, result.Stderr)
	}
	return nil
}

// classify maps steamcmd output onto the error taxonomy best-effort.
func classify(result ports.CommandResult) step.ToolErrorKind {
	out := strings.ToLower(result.Stdout + result.Stderr)
	switch {
	case strings.Contains(out, "invalid password") ||
		strings.Contains(out, "failed login") ||
		strings.Contains(out, "login failure") ||
		strings.Contains(out, "account logon denied"):
		return step.ToolErrorAuthRejected
	case strings.Contains(out, "no connection") ||
		strings.Contains(out, "connection to steam") ||
		strings.Contains(out, "timed out") ||
		strings.Contains(out, "network is unreachable"):
		return step.ToolErrorNetwork
	default:
		return step.ToolErrorOpaque
	}
}
