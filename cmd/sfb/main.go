package main

import (
	"fmt"
	"os"

	"github.com/WyvernIXTL/staggered-file-backup/cmd/sfb/cli"
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

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(cli.NewRunCommand())
	root.AddCommand(cli.NewPruneCommand())
	root.AddCommand(cli.NewListCommand())
	root.AddCommand(cli.NewVerifyCommand())
	root.AddCommand(cli.NewAgentCommand())
	root.AddCommand(cli.NewConfigCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
