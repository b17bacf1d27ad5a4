// blockrecon simulates block transaction reconciliation between two peers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-blockrecon/cmd"
	"github.com/spacemeshos/go-blockrecon/cmd/sim"
)

var (
	version string
	commit  string
	branch  string
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch

	root := &cobra.Command{
		Use:           "blockrecon",
		Short:         "block transaction reconciliation tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(sim.Cmd, sim.VersionCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
