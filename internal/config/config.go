// Package config defines the host manifest: what to provision, where, and
// which package set each supported OS release gets.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Errors for manifest parsing and validation.
var (
	ErrNoServer           = errors.New("manifest has no server section")
	ErrNoPackages         = errors.New("manifest declares no package sets")
	ErrUnsupportedRelease = errors.New("no package set declared for this OS release")
)

// Server describes the game server installation.
type Server struct {
	Name             string `yaml:"name"`
	User             string `yaml:"user"`
	Home             string `yaml:"home"`
	AppID            string `yaml:"app_id"`
	InstallDir       string `yaml:"install_dir"`
	PublicKey        string `yaml:"public_key"`
	PluginManifest   string `yaml:"plugin_manifest"`
	PluginMinVersion string `yaml:"plugin_min_version"`
}

// Share describes the file share exposing the server directory.
type Share struct {
	Name     string            `yaml:"name"`
	Path     string            `yaml:"path"`
	ConfPath string            `yaml:"conf_path"`
	Options  map[string]string `yaml:"options"`
}

// Build describes the messaging library built from source.
type Build struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	WorkDir    string `yaml:"work_dir"`
	InstallLib string `yaml:"install_lib"`
}

// Supervisor describes process supervisor registration.
type Supervisor struct {
	UnitName  string `yaml:"unit_name"`
	UnitPath  string `yaml:"unit_path"`
	HelperDir string `yaml:"helper_dir"`
}

// Packages declares the package sets to install. The per-release sets are
// operational facts carried as configuration data, not branching logic.
type Packages struct {
	Releases map[string][]string `yaml:"releases"` // OS release VERSION_ID -> package set
	Optional []string            `yaml:"optional"` // installed best-effort, never fail the run
	Python   []string            `yaml:"python"`   // pip install with system-package fallback
}

// Config is the full host manifest.
type Config struct {
	Server     Server     `yaml:"server"`
	Share      Share      `yaml:"share"`
	Build      Build      `yaml:"build"`
	Supervisor Supervisor `yaml:"supervisor"`
	Packages   Packages   `yaml:"packages"`
	Timezone   string     `yaml:"timezone"`
	StateDir   string     `yaml:"state_dir"`
}

// Parse parses a Config from YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.User == "" {
		c.Server.User = "gameserver"
	}
	if c.Server.Home == "" {
		c.Server.Home = "/home/" + c.Server.User
	}
	if c.Server.InstallDir == "" {
		c.Server.InstallDir = c.Server.Home + "/server"
	}
	if c.Share.ConfPath == "" {
		c.Share.ConfPath = "/etc/samba/smb.conf"
	}
	if c.Share.Path == "" {
		c.Share.Path = c.Server.InstallDir
	}
	if c.Supervisor.UnitPath == "" && c.Supervisor.UnitName != "" {
		c.Supervisor.UnitPath = "/etc/systemd/system/" + c.Supervisor.UnitName + ".service"
	}
	if c.Supervisor.HelperDir == "" {
		c.Supervisor.HelperDir = "/usr/local/sbin"
	}
	if c.StateDir == "" {
		c.StateDir = "/var/lib/quartermaster"
	}
	if c.Build.WorkDir == "" && c.Build.Name != "" {
		c.Build.WorkDir = "/usr/local/src/" + c.Build.Name
	}
}

// Validate checks the manifest for missing required sections.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return ErrNoServer
	}
	if len(c.Packages.Releases) == 0 {
		return ErrNoPackages
	}
	return nil
}

// PackagesFor returns the package set for the detected OS release.
func (c *Config) PackagesFor(versionID string) ([]string, error) {
	pkgs, ok := c.Packages.Releases[versionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRelease, versionID)
	}
	return pkgs, nil
}
