// Package platform detects the host operating system release from the
// standard OS descriptor file.
package platform

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"

	"github.com/gameforge/quartermaster/internal/domain/step"
)

// DefaultOSReleasePath is the standard OS descriptor file location.
const DefaultOSReleasePath = "/etc/os-release"

// Release describes the detected operating system release.
type Release struct {
	ID         string // e.g. "debian"
	VersionID  string // e.g. "12"
	PrettyName string // e.g. "Debian GNU/Linux 12 (bookworm)"
}

// String returns a human-readable identity.
func (r Release) String() string {
	if r.PrettyName != "" {
		return r.PrettyName
	}
	return fmt.Sprintf("%s %s", r.ID, r.VersionID)
}

// Detect reads the OS descriptor at path. The file is the usual key=value
// form, which the ini parser handles including quoted values.
func Detect(path string) (Release, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Release{}, step.NewPreconditionError(
			fmt.Sprintf("cannot detect OS release from %s: %v", path, err))
	}

	section := cfg.Section("")
	release := Release{
		ID:         section.Key("ID").String(),
		VersionID:  section.Key("VERSION_ID").String(),
		PrettyName: section.Key("PRETTY_NAME").String(),
	}

	if release.ID == "" || release.VersionID == "" {
		return Release{}, step.NewPreconditionError(
			fmt.Sprintf("OS descriptor %s is missing ID or VERSION_ID", path))
	}
	return release, nil
}

// RequireRoot verifies the process runs with administrator privilege.
// The whole provisioning run mutates the package database, the user
// namespace, and system configuration, all of which need it.
func RequireRoot() error {
	if os.Geteuid() != 0 {
		return step.NewPreconditionError("provisioning requires root privilege").
			WithSuggestion("Re-run with sudo.")
	}
	return nil
}
