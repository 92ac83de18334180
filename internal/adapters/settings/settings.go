// Package settings loads tool-level configuration from the environment and an
// optional settings file. These are operator knobs (cache location, artifact
// repositories, log level), distinct from the per-project buildfile.
package settings

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/zerr"
)

// envPrefix is the environment variable prefix for strata configuration.
const envPrefix = "STRATA"

// Settings holds the resolved tool configuration.
type Settings struct {
	// StateDir is the root of the layer store (blobs plus cache index).
	StateDir string `mapstructure:"stateDir"`

	// Repositories are directories searched for package artifacts, in order.
	Repositories []string `mapstructure:"repositories"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"logLevel"`
}

// Level maps the configured log level onto slog.
func (s *Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Loader reads settings from multiple sources with env precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a settings loader with defaults and env bindings set up.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("stateDir", "STRATA_STATE_DIR")
	_ = v.BindEnv("repositories", "STRATA_REPOSITORIES")
	_ = v.BindEnv("logLevel", "STRATA_LOG_LEVEL")

	v.SetDefault("stateDir", ".strata")
	v.SetDefault("repositories", []string{"repository"})
	v.SetDefault("logLevel", "info")

	return &Loader{v: v}
}

// Load reads settings, merging an optional YAML settings file under the env
// variables. A missing file is not an error; defaults fill the gaps.
func (l *Loader) Load(configFile string) (*Settings, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, zerr.Wrap(err, "failed to read settings file")
			}
		}
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal settings")
	}

	// STRATA_REPOSITORIES arrives as a single separated string from the env.
	if len(s.Repositories) == 1 && strings.Contains(s.Repositories[0], string(os.PathListSeparator)) {
		s.Repositories = strings.Split(s.Repositories[0], string(os.PathListSeparator))
	}

	return &s, nil
}
