// Package provider defines the contract providers implement to turn the
// host manifest into executable provisioning steps.
package provider

import (
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
)

// Provider compiles one concern of the host manifest into ordered steps.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Steps transforms the manifest into executable steps for the
	// detected OS release. Step order within a provider is execution
	// order.
	Steps(release platform.Release, cfg *config.Config) ([]step.Step, error)
}
