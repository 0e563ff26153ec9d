// Package config reads the externally supplied settings from the
// environment. Load is cheap and called per dispatch so the strategy is
// always fresh; bad values degrade to defaults with a warning instead of
// failing the operation.
package config

import (
	"time"

	"github.com/caarlos0/log"
	"github.com/joeshaw/envdecode"
	"github.com/liftfs/liftfs/internal/fallback"
	"github.com/liftfs/liftfs/internal/launcher"
	"github.com/liftfs/liftfs/internal/privilege"
)

// Config is the full externally supplied configuration.
type Config struct {
	// Strategy is the elevation policy: never, automatic, or always.
	Strategy string `env:"LIFTFS_ELEVATION,default=automatic"`

	// ElevationCommand runs programs elevated on Unix hosts.
	ElevationCommand string `env:"LIFTFS_ELEVATION_COMMAND,default=sudo"`

	// SocketDir holds the helper bind sockets; empty means the system
	// temp directory.
	SocketDir string `env:"LIFTFS_SOCKET_DIR"`

	// HelperPath is the helper binary; empty means the current
	// executable.
	HelperPath string `env:"LIFTFS_HELPER"`

	// Timeout bounds a helper launch and each remote operation.
	Timeout time.Duration `env:"LIFTFS_TIMEOUT,default=15s"`
}

func defaults() Config {
	return Config{
		Strategy:         "automatic",
		ElevationCommand: privilege.DefaultCommand,
		Timeout:          launcher.DefaultTimeout,
	}
}

// Load reads the environment. It never fails hard: an undecodable
// environment is reported and replaced by the defaults so dispatch stays
// available.
func Load(logger *log.Logger) Config {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		logger.WithError(err).Warn("invalid environment configuration, using defaults")
		return defaults()
	}
	return cfg
}

// EffectiveStrategy parses the configured strategy, warning and falling
// back to automatic on an unknown value.
func (c Config) EffectiveStrategy(logger *log.Logger) fallback.Strategy {
	strategy, err := fallback.ParseStrategy(c.Strategy)
	if err != nil {
		logger.WithError(err).Warn("bad elevation strategy, defaulting to automatic")
		return fallback.Automatic
	}
	return strategy
}

// LauncherConfig maps the relevant settings onto the launcher.
func (c Config) LauncherConfig() launcher.Config {
	return launcher.Config{
		HelperPath:       c.HelperPath,
		SocketDir:        c.SocketDir,
		ElevationCommand: c.ElevationCommand,
		Timeout:          c.Timeout,
	}
}
