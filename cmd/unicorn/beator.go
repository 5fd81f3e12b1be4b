package main

import (
	"fmt"
	"os"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/btor2"
	"github.com/spf13/cobra"
)

func newBeatorCmd() *cobra.Command {
	var (
		unroll   uint
		solver   string
		bitblast bool
		out      string
	)

	cmd := &cobra.Command{
		Use:   "beator BINARY",
		Short: "emit a word-level or bit-blasted BTOR2-equivalent FSM file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("unroll") {
				return fmt.Errorf("unicorn: beator: %w (--unroll is required)", unicorn.ErrConfig)
			}
			if out == "" {
				return fmt.Errorf("unicorn: beator: %w (--out is required)", unicorn.ErrConfig)
			}
			solverKind, err := parseSolver(solver)
			if err != nil {
				return err
			}

			c, err := compile(args[0], unroll, solverKind, true)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("unicorn: beator: %w", err)
			}
			defer f.Close()

			fmt.Fprintf(f, "; unicorn beator depth=%d solver=%s bitblast=%v\n", unroll, solver, bitblast)

			if bitblast {
				l, badLit := lowerToBits(c.u)
				if err := btor2.WriteBitBlasted(f, l.Graph(), badLit); err != nil {
					return fmt.Errorf("unicorn: beator: %w", err)
				}
				return nil
			}

			bad := c.model.Arena.MkBad(c.u.Objective, "reachable")
			if err := btor2.WriteWordLevel(f, c.model.Arena, []unicorn.Id{bad}); err != nil {
				return fmt.Errorf("unicorn: beator: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().UintVar(&unroll, "unroll", 0, "unrolling depth N")
	cmd.Flags().StringVar(&solver, "solver", "", "SMT backend for pruning: z3|boolector")
	cmd.Flags().BoolVar(&bitblast, "bitblast", false, "emit a bit-blasted boolean FSM instead of word-level")
	cmd.Flags().StringVar(&out, "out", "", "output file path (required)")

	return cmd
}
