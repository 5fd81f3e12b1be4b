// Command unicorn compiles a RISC-V rv64im ELF binary into the
// word-level/bit-blasted FSM, QUBO, and external-annealer artifacts
// described by the module's CLI surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
