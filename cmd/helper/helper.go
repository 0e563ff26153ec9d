// Package helper is the privileged side of liftfs: a hidden subcommand
// spawned through the elevation session, dialing back to the launcher's
// socket and serving filesystem operations until told to stop.
package helper

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/caarlos0/log"
	"github.com/liftfs/liftfs/internal/fsops"
	"github.com/liftfs/liftfs/internal/remote"
	"github.com/spf13/cobra"
)

type options struct {
	socket  string
	verbose bool
}

func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:    "helper",
		Short:  "run the privileged helper process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&opts.socket, "connect", "", "Unix socket to dial back to")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	_ = cmd.MarkFlagRequired("connect")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	// The launcher owns stdout; helper diagnostics go to stderr.
	logger := log.New(os.Stderr)
	if opts.verbose {
		logger.Level = log.DebugLevel
	}

	conn, err := net.Dial("unix", opts.socket)
	if err != nil {
		return fmt.Errorf("dialing launcher socket: %w", err)
	}

	logger.WithField("socket", opts.socket).Debug("connected to launcher")
	if err := remote.NewServer(fsops.NewLocal(), logger).Serve(ctx, conn); err != nil {
		return fmt.Errorf("serving file operations: %w", err)
	}
	return nil
}
