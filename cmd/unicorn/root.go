package main

import (
	"io/ioutil"
	"log"

	"github.com/spf13/cobra"
)

var verbose bool

// newRootCmd assembles the three-subcommand tree, following the
// per-subcommand New*Cmd() layout operator-cli/main.go uses for its own
// cobra.Command construction.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "unicorn",
		Short: "unicorn compiles RISC-V binaries into FSM, QUBO and circuit artifacts",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(0)
			if !verbose {
				log.SetOutput(ioutil.Discard)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline phases to stderr")

	root.AddCommand(newBeatorCmd())
	root.AddCommand(newQubotCmd())
	root.AddCommand(newDwaveCmd())
	return root
}
