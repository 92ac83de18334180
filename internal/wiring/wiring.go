// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/stratabuild/strata/internal/adapters/cas"
	_ "github.com/stratabuild/strata/internal/adapters/config"
	_ "github.com/stratabuild/strata/internal/adapters/fs"
	_ "github.com/stratabuild/strata/internal/adapters/logger"
	_ "github.com/stratabuild/strata/internal/adapters/manifest"
	_ "github.com/stratabuild/strata/internal/adapters/oci"
	_ "github.com/stratabuild/strata/internal/adapters/repo"
	_ "github.com/stratabuild/strata/internal/adapters/settings"
	_ "github.com/stratabuild/strata/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "github.com/stratabuild/strata/internal/app"
	_ "github.com/stratabuild/strata/internal/engine/pipeline"
)
