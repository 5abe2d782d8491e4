package samba

import (
	"context"
	"os"
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

func testShare(t *testing.T, confContent string) (config.Share, string) {
	t.Helper()
	confPath := filepath.Join(t.TempDir(), "smb.conf")
	if confContent != "" {
		if err := os.WriteFile(confPath, []byte(confContent), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return config.Share{
		Name:     "mpmissions",
		Path:     "/home/gameserver/server/mpmissions",
		ConfPath: confPath,
		Options:  map[string]string{"read only": "no", "valid users": "gameserver"},
	}, confPath
}

func reloadableRunner() *mocks.CommandRunner {
	runner := mocks.NewCommandRunner()
	runner.AddResult("smbcontrol", []string{"all", "reload-config"}, ports.CommandResult{ExitCode: 0})
	return runner
}

func TestShareStep_AddsMarkedSection(t *testing.T) {
	share, confPath := testShare(t, "[global]\nworkgroup = WORKGROUP\n")

	s := NewShareStep(share, reloadableRunner())
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	cfg, err := ini.Load(confPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.HasSection("mpmissions") {
		t.Fatal("share section missing")
	}
	section := cfg.Section("mpmissions")
	if section.Key("comment").String() != "managed by quartermaster" {
		t.Errorf("marker = %q", section.Key("comment").String())
	}
	if section.Key("path").String() != share.Path {
		t.Errorf("path = %q, want %q", section.Key("path").String(), share.Path)
	}
	if section.Key("read only").String() != "no" {
		t.Errorf("read only = %q, want no", section.Key("read only").String())
	}
	// The operator's existing configuration survives.
	if cfg.Section("global").Key("workgroup").String() != "WORKGROUP" {
		t.Error("global section was modified")
	}
}

func TestShareStep_CreatesMissingConfFile(t *testing.T) {
	share, confPath := testShare(t, "")

	s := NewShareStep(share, reloadableRunner())
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := os.Stat(confPath); err != nil {
		t.Errorf("conf file not created: %v", err)
	}
}

func TestShareStep_RefusesForeignSection(t *testing.T) {
	share, _ := testShare(t, "[mpmissions]\npath = /srv/other\n")

	s := NewShareStep(share, reloadableRunner())
	err := s.Apply(testCtx())
	if err == nil || !strings.Contains(err.Error(), "not managed by this tool") {
		t.Errorf("Apply() error = %v, want foreign-section refusal", err)
	}
}

func TestShareStep_RewritesOwnSection(t *testing.T) {
	share, _ := testShare(t, "[mpmissions]\ncomment = managed by quartermaster\npath = /old/path\n")

	s := NewShareStep(share, reloadableRunner())
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v, own section should be rewritable", err)
	}
}

func TestShareStep_RevertRemovesOnlyOwnSection(t *testing.T) {
	share, confPath := testShare(t, "[global]\nworkgroup = WORKGROUP\n")
	runner := reloadableRunner()

	s := NewShareStep(share, runner)
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := s.Revert(testCtx()); err != nil {
		t.Fatalf("Revert() error = %v", err)
	}

	cfg, err := ini.Load(confPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HasSection("mpmissions") {
		t.Error("share section still present after revert")
	}
	if cfg.Section("global").Key("workgroup").String() != "WORKGROUP" {
		t.Error("global section was removed")
	}
}

func TestShareStep_RevertLeavesForeignSection(t *testing.T) {
	share, confPath := testShare(t, "[mpmissions]\npath = /srv/other\n")

	s := NewShareStep(share, reloadableRunner())
	if err := s.Revert(testCtx()); err != nil {
		t.Fatalf("Revert() error = %v", err)
	}

	cfg, err := ini.Load(confPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.HasSection("mpmissions") {
		t.Error("foreign section was deleted")
	}
}

func TestShareStep_RevertToleratesMissingSection(t *testing.T) {
	share, _ := testShare(t, "[global]\n")

	s := NewShareStep(share, mocks.NewCommandRunner())
	if err := s.Revert(testCtx()); err != nil {
		t.Errorf("Revert() error = %v, want nil for absent section", err)
	}
}

func TestShareStep_ReloadFallsBackToSystemctl(t *testing.T) {
	share, _ := testShare(t, "")

	runner := mocks.NewCommandRunner()
	runner.AddResult("smbcontrol", []string{"all", "reload-config"},
		ports.CommandResult{ExitCode: 1, Stderr: "can't find smbd"})
	runner.AddResult("systemctl", []string{"reload", "smbd"}, ports.CommandResult{ExitCode: 0})

	s := NewShareStep(share, runner)
	if err := s.Apply(testCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !runner.CalledWith("systemctl", "reload", "smbd") {
		t.Error("systemctl fallback did not run")
	}
}

func TestShareStep_ReloadFailureIsNotFatal(t *testing.T) {
	share, _ := testShare(t, "")

	runner := mocks.NewCommandRunner()
	runner.AddResult("smbcontrol", []string{"all", "reload-config"}, ports.CommandResult{ExitCode: 1})
	runner.AddResult("systemctl", []string{"reload", "smbd"}, ports.CommandResult{ExitCode: 1})

	s := NewShareStep(share, runner)
	if err := s.Apply(testCtx()); err != nil {
		t.Errorf("Apply() error = %v, a host without a share daemon is fine", err)
	}
}

func TestShareStep_RejectsInvalidShareName(t *testing.T) {
	share, _ := testShare(t, "")
	share.Name = "bad;name"
	s := &ShareStep{share: share, id: step.MustNewStepID("share:add:bad"), runner: mocks.NewCommandRunner()}

	if err := s.Apply(testCtx()); err == nil {
		t.Error("Apply() error = nil, want share name rejection")
	}
}

func TestProvider_NoShareDeclared(t *testing.T) {
	cfg := &config.Config{}
	p := NewProvider(mocks.NewCommandRunner())

	steps, err := p.Steps(platform.Release{ID: "debian", VersionID: "12"}, cfg)
	if err != nil {
		t.Fatalf("Steps() error = %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("Steps() len = %d, want 0 when no share is declared", len(steps))
	}
}
