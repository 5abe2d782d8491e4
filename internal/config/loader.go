package config

import (
	"fmt"
	"os"
	"strings"
)

// Loader loads the host manifest from the filesystem.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the manifest at path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found at %s", path)
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		if strings.Contains(err.Error(), "yaml:") || strings.Contains(err.Error(), "unmarshal") {
			return nil, fmt.Errorf("manifest %s is not valid YAML: %w", path, err)
		}
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return cfg, nil
}
