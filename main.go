package main

import (
	"errors"
	"os"

	goversion "github.com/caarlos0/go-version"
	"github.com/caarlos0/log"
	"github.com/liftfs/liftfs/cmd/fileops"
	helperCmd "github.com/liftfs/liftfs/cmd/helper"
	versionCmd "github.com/liftfs/liftfs/cmd/version"
	"github.com/liftfs/liftfs/internal"
	"github.com/spf13/cobra"
)

const website = "https://github.com/liftfs/liftfs"

var (
	version = ""
	builtBy = ""
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "liftfs",
		Short: "file operations with transparent privilege elevation",
		Long: `liftfs runs filesystem operations with the privileges they need:
unprivileged when possible, through a privileged helper process when not,
according to the configured elevation strategy (never, automatic, always).`,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(fileops.NewCommands()...)
	rootCmd.AddCommand(helperCmd.NewCommand())
	rootCmd.AddCommand(versionCmd.NewCommand(buildVersion(version, builtBy)))

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, internal.ErrSilence) {
			log.WithError(err).Error("command failed")
		}
		os.Exit(1)
	}
}

func buildVersion(version, builtBy string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("liftfs", "Privileged file operations, simplified.", website),
		func(i *goversion.Info) {
			if version != "" {
				i.GitVersion = version
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
