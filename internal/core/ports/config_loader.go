// Package ports defines the core interfaces for the application.
package ports

import "github.com/stratabuild/strata/internal/core/domain"

// ConfigLoader loads and validates a buildfile into a Plan.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the named buildfile from the context directory and returns
	// the validated build plan.
	Load(contextDir, filename string) (*domain.Plan, error)
}
