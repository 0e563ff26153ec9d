package fileops

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/liftfs/liftfs/internal/fallback"
	"github.com/liftfs/liftfs/internal/fsops"
	"github.com/spf13/cobra"
)

func newCatCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "print file contents, elevating when needed",
		Example: `  # Read a file the current user cannot open
  liftfs cat /etc/shadow

  ## Never elevate, even on permission failure
  liftfs cat --elevation never /etc/shadow`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(opts)
			defer rt.close()

			ctx := cmd.Context()
			data, err := fallback.Do(rt.strategy, rt.local, rt.root,
				func(ops fsops.FileOps) ([]byte, error) {
					return ops.ReadFile(ctx, args[0])
				},
				fallback.ElevatablePath(args[0]))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}

func newWriteCommand() *cobra.Command {
	opts := &options{}
	var mode string

	cmd := &cobra.Command{
		Use:           "write <path>",
		Short:         "write stdin to a file, elevating when needed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			perm, err := parseMode(mode)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}

			rt := newRuntime(opts)
			defer rt.close()

			ctx := cmd.Context()
			_, err = fallback.Do(rt.strategy, rt.local, rt.root,
				func(ops fsops.FileOps) (struct{}, error) {
					return struct{}{}, ops.WriteFile(ctx, args[0], data, perm)
				},
				fallback.ElevatablePath(args[0]))
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "644", "File mode for the written file (octal)")
	opts.bind(cmd)
	return cmd
}

func newStatCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "stat <path>",
		Short:         "show file metadata, elevating when needed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(opts)
			defer rt.close()

			ctx := cmd.Context()
			path := fallback.ElevatablePath(args[0])
			path.AttributeAccess = true
			info, err := fallback.Do(rt.strategy, rt.local, rt.root,
				func(ops fsops.FileOps) (fsops.FileInfo, error) {
					return ops.Stat(ctx, args[0])
				},
				path)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func newListCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "ls <path>",
		Short:         "list a directory, elevating when needed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(opts)
			defer rt.close()

			ctx := cmd.Context()
			entries, err := fallback.Do(rt.strategy, rt.local, rt.root,
				func(ops fsops.FileOps) ([]fsops.FileInfo, error) {
					return ops.List(ctx, args[0])
				},
				fallback.ElevatablePath(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				fmt.Fprintf(out, "%s %10d %s\n", entry.Mode, entry.Size, entry.Name)
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func newRemoveCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "rm <path>",
		Short:         "remove a file, elevating when needed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(opts)
			defer rt.close()

			ctx := cmd.Context()
			_, err := fallback.Do(rt.strategy, rt.local, rt.root,
				func(ops fsops.FileOps) (struct{}, error) {
					return struct{}{}, ops.Remove(ctx, args[0])
				},
				fallback.ElevatablePath(args[0]))
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}

func newMoveCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "mv <source> <destination>",
		Short:         "rename a file, elevating when needed",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(opts)
			defer rt.close()

			ctx := cmd.Context()
			_, err := fallback.Do(rt.strategy, rt.local, rt.root,
				func(ops fsops.FileOps) (struct{}, error) {
					return struct{}{}, ops.Rename(ctx, args[0], args[1])
				},
				fallback.ElevatablePath(args[0]),
				fallback.ElevatablePath(args[1]))
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}

func parseMode(text string) (fs.FileMode, error) {
	parsed, err := strconv.ParseUint(text, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", text, err)
	}
	return fs.FileMode(parsed), nil
}

func printInfo(out io.Writer, info fsops.FileInfo) {
	fmt.Fprintf(out, "name:     %s\n", info.Name)
	fmt.Fprintf(out, "size:     %d\n", info.Size)
	fmt.Fprintf(out, "mode:     %s\n", info.Mode)
	fmt.Fprintf(out, "modified: %s\n", info.Modified().Format(time.RFC3339))
	if info.UID >= 0 {
		fmt.Fprintf(out, "owner:    %d:%d\n", info.UID, info.GID)
	}
}
