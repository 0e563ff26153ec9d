// Package fileops holds the user-facing file operation commands. Each
// command resolves configuration fresh, then routes its operation through
// the fallback dispatcher: unprivileged by default, through the
// privileged helper when the strategy calls for it.
package fileops

import (
	"os"

	"github.com/caarlos0/log"
	"github.com/liftfs/liftfs/internal/config"
	"github.com/liftfs/liftfs/internal/fallback"
	"github.com/liftfs/liftfs/internal/fsops"
	"github.com/liftfs/liftfs/internal/launcher"
	"github.com/spf13/cobra"
)

type options struct {
	verbose   bool
	elevation string
}

func (o *options) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().StringVar(&o.elevation, "elevation", "", "Override elevation strategy (never|automatic|always)")
}

// runtime is the per-invocation dispatch environment: fresh config, the
// local implementation, and a lazily launched helper-backed one.
type runtime struct {
	logger   *log.Logger
	cfg      config.Config
	strategy fallback.Strategy
	local    fsops.FileOps
	root     *lazyRoot
}

func newRuntime(opts *options) *runtime {
	logger := log.New(os.Stdout)
	if opts.verbose {
		logger.Level = log.DebugLevel
	}

	cfg := config.Load(logger)
	if opts.elevation != "" {
		cfg.Strategy = opts.elevation
	}

	return &runtime{
		logger:   logger,
		cfg:      cfg,
		strategy: cfg.EffectiveStrategy(logger),
		local:    fsops.NewLocal(),
		root:     newLazyRoot(launcher.New(cfg.LauncherConfig(), logger), logger),
	}
}

// close releases the helper handle if one was launched.
func (rt *runtime) close() {
	rt.root.Close()
}

// NewCommands returns all file operation commands.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		newCatCommand(),
		newWriteCommand(),
		newStatCommand(),
		newListCommand(),
		newRemoveCommand(),
		newMoveCommand(),
	}
}
