package samba

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/gameforge/quartermaster/internal/config"
)

// Configurator edits the file-share configuration. Sections it writes
// carry the ownership marker; it refuses to touch same-named sections
// written by anyone else.
type Configurator struct{}

// NewConfigurator creates a new Configurator.
func NewConfigurator() *Configurator {
	return &Configurator{}
}

// AddShare writes the share section, creating the configuration file when
// missing. Rewriting a section this tool owns is allowed.
func (c *Configurator) AddShare(share config.Share) error {
	cfg, err := ini.LooseLoad(share.ConfPath)
	if err != nil {
		return err
	}

	if cfg.HasSection(share.Name) {
		section := cfg.Section(share.Name)
		if section.Key(markerKey).String() != markerValue {
			return fmt.Errorf("share %q already exists in %s and is not managed by this tool",
				share.Name, share.ConfPath)
		}
	}

	section := cfg.Section(share.Name)
	section.Key(markerKey).SetValue(markerValue)
	section.Key("path").SetValue(share.Path)
	for k, v := range share.Options {
		section.Key(k).SetValue(v)
	}

	return cfg.SaveTo(share.ConfPath)
}

// RemoveShare deletes the share section only when the marker matches.
// An absent section or file is fine.
func (c *Configurator) RemoveShare(share config.Share) error {
	cfg, err := ini.LooseLoad(share.ConfPath)
	if err != nil {
		return err
	}

	if !cfg.HasSection(share.Name) {
		return nil
	}
	if cfg.Section(share.Name).Key(markerKey).String() != markerValue {
		return nil
	}

	cfg.DeleteSection(share.Name)
	return cfg.SaveTo(share.ConfPath)
}
