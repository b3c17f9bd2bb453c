package main

import (
	"fmt"
	"os"

	"bitwise74/bucket-panel/cmd/panelctl/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewLoginCommand())
	root.AddCommand(cli.NewUploadCommand())
	root.AddCommand(cli.NewLsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
