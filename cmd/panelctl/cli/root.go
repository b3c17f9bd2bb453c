// Package cli holds the panelctl commands
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type VersionInfo struct {
	Version string
	Commit  string
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "panelctl",
		Short:         "Command line client for the bucket panel",
		Long:          "Log in to a bucket panel, upload files through signed urls and browse the bucket.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is $HOME/.panelctl/config.toml)")
	cmd.PersistentFlags().String("server", "http://localhost:8080", "panel base url")

	viper.BindPFlag("server", cmd.PersistentFlags().Lookup("server"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}
