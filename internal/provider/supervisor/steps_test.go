package supervisor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/ini.v1"

	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/testutil/mocks"
)

func testCtx() step.RunContext {
	return step.NewRunContext(context.Background())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
server:
  name: arma3
supervisor:
  unit_name: arma3
packages:
  releases:
    "12": [samba]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}

func TestUnitStep_WritesAndEnablesUnit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Supervisor.UnitPath = filepath.Join(t.TempDir(), "arma3.service")

	runner := mocks.NewCommandRunner()
	runner.AddResult("systemctl", []string{"daemon-reload"}, ports.CommandResult{ExitCode: 0})
	runner.AddResult("systemctl", []string{"enable", "--now", "arma3"}, ports.CommandResult{ExitCode: 0})

	s := NewUnitStep(cfg, runner, mocks.NewFileSystem())
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	unit, err := ini.Load(cfg.Supervisor.UnitPath)
	if err != nil {
		t.Fatalf("unit file not written: %v", err)
	}
	service := unit.Section("Service")
	if service.Key("User").String() != "gameserver" {
		t.Errorf("User = %q", service.Key("User").String())
	}
	if service.Key("ExecStart").String() != "/home/gameserver/server/start.sh" {
		t.Errorf("ExecStart = %q", service.Key("ExecStart").String())
	}
	if service.Key("Restart").String() != "on-failure" {
		t.Errorf("Restart = %q", service.Key("Restart").String())
	}
	if unit.Section("Install").Key("WantedBy").String() != "multi-user.target" {
		t.Error("unit not wanted by multi-user.target")
	}

	if !runner.CalledWith("systemctl", "enable", "--now", "arma3") {
		t.Error("unit was not enabled")
	}
}

func TestUnitStep_EnableFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Supervisor.UnitPath = filepath.Join(t.TempDir(), "arma3.service")

	runner := mocks.NewCommandRunner()
	runner.AddResult("systemctl", []string{"daemon-reload"}, ports.CommandResult{ExitCode: 0})
	runner.AddResult("systemctl", []string{"enable", "--now", "arma3"},
		ports.CommandResult{ExitCode: 1, Stderr: "Failed to enable unit"})

	s := NewUnitStep(cfg, runner, mocks.NewFileSystem())
	if err := s.Apply(testCtx()); err == nil {
		t.Error("Apply() error = nil, want enable failure")
	}
}

func TestUnitStep_RevertRemovesWrittenUnit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Supervisor.UnitPath = "/etc/systemd/system/arma3.service"

	fs := mocks.NewFileSystem()
	fs.AddFile(cfg.Supervisor.UnitPath, "[Unit]\n")

	runner := mocks.NewCommandRunner()
	// Disable fails because the unit never started; revert tolerates it.
	runner.AddResult("systemctl", []string{"disable", "--now", "arma3"},
		ports.CommandResult{ExitCode: 1, Stderr: "Unit arma3.service not loaded"})
	runner.AddResult("systemctl", []string{"daemon-reload"}, ports.CommandResult{ExitCode: 0})

	s := NewUnitStep(cfg, runner, fs)
	if err := s.Revert(testCtx()); err != nil {
		t.Fatalf("Revert() error = %v", err)
	}
	if fs.Exists(cfg.Supervisor.UnitPath) {
		t.Error("unit file still present after revert")
	}
}

func TestUnitStep_RevertToleratesAbsentUnit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Supervisor.UnitPath = "/etc/systemd/system/arma3.service"

	runner := mocks.NewCommandRunner()
	s := NewUnitStep(cfg, runner, mocks.NewFileSystem())
	if err := s.Revert(testCtx()); err != nil {
		t.Fatalf("Revert() error = %v", err)
	}
	if len(runner.Calls()) != 0 {
		t.Error("supervisor touched for a unit that was never written")
	}
}

func TestRegisterHelperStep_WritesRenderedSequence(t *testing.T) {
	cfg := testConfig(t)
	fs := mocks.NewFileSystem()

	s := NewRegisterHelperStep(cfg, fs)
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, err := fs.ReadFile("/usr/local/sbin/arma3-register.sh")
	if err != nil {
		t.Fatalf("helper not written: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "#!/bin/sh\n") {
		t.Error("helper missing shebang")
	}
	if !strings.Contains(content, "systemctl enable --now arma3\n") {
		t.Errorf("helper missing enable command:\n%s", content)
	}
	if !strings.Contains(content, "systemctl status --no-pager arma3 || true\n") {
		t.Errorf("status command should be best-effort:\n%s", content)
	}
}

func TestCleanupHelperStep_WritesNestedSequence(t *testing.T) {
	cfg := testConfig(t)
	fs := mocks.NewFileSystem()

	s := NewCleanupHelperStep(cfg, fs)
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, err := fs.ReadFile("/usr/local/sbin/arma3-cleanup.sh")
	if err != nil {
		t.Fatalf("helper not written: %v", err)
	}
	content := string(data)

	// Sections appear in teardown order: unit, files, account, state.
	sections := []string{
		"# deregister supervisor unit",
		"# remove fetched server files",
		"# remove service account",
		"# clear recorded provisioning state",
	}
	last := -1
	for _, header := range sections {
		idx := strings.Index(content, header)
		if idx == -1 {
			t.Fatalf("helper missing section %q:\n%s", header, content)
		}
		if idx < last {
			t.Errorf("section %q out of order", header)
		}
		last = idx
	}

	if !strings.Contains(content, "userdel --remove gameserver || true\n") {
		t.Errorf("account removal should be best-effort:\n%s", content)
	}
	if !strings.Contains(content, "rm -rf /home/gameserver/server\n") {
		t.Errorf("helper missing server file removal:\n%s", content)
	}
	if !strings.Contains(content, "rm -rf /var/lib/quartermaster\n") {
		t.Errorf("helper missing state removal:\n%s", content)
	}
}

func TestHelperSteps_Revert(t *testing.T) {
	cfg := testConfig(t)
	fs := mocks.NewFileSystem()

	register := NewRegisterHelperStep(cfg, fs)
	cleanup := NewCleanupHelperStep(cfg, fs)
	for _, s := range []step.Step{register, cleanup} {
		if err := s.Apply(testCtx()); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if err := s.Revert(testCtx()); err != nil {
			t.Fatalf("Revert() error = %v", err)
		}
		if err := s.Revert(testCtx()); err != nil {
			t.Errorf("second Revert() error = %v", err)
		}
	}
	if fs.Exists("/usr/local/sbin/arma3-register.sh") || fs.Exists("/usr/local/sbin/arma3-cleanup.sh") {
		t.Error("helpers still present after revert")
	}
}

func TestProvider_NoUnitDeclared(t *testing.T) {
	cfg := &config.Config{}
	p := NewProvider(mocks.NewCommandRunner(), mocks.NewFileSystem())

	steps, err := p.Steps(platform.Release{ID: "debian", VersionID: "12"}, cfg)
	if err != nil {
		t.Fatalf("Steps() error = %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("Steps() len = %d, want 0", len(steps))
	}
}

func TestProvider_Steps(t *testing.T) {
	cfg := testConfig(t)
	p := NewProvider(mocks.NewCommandRunner(), mocks.NewFileSystem())

	steps, err := p.Steps(platform.Release{ID: "debian", VersionID: "12"}, cfg)
	if err != nil {
		t.Fatalf("Steps() error = %v", err)
	}

	want := []string{"supervisor:unit:arma3", "supervisor:helper:arma3", "cleanup:helper:arma3"}
	if len(steps) != len(want) {
		t.Fatalf("Steps() len = %d, want %d", len(steps), len(want))
	}
	for i, id := range want {
		if steps[i].ID().String() != id {
			t.Errorf("steps[%d] = %q, want %q", i, steps[i].ID(), id)
		}
	}
}
