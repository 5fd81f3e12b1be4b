package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	unicorn "github.com/cksystemsgroup/unicorn-go"
	"github.com/cksystemsgroup/unicorn-go/qubo"
	"github.com/spf13/cobra"
)

func newQubotCmd() *cobra.Command {
	var (
		unroll uint
		solver string
		out    string
		inputs string
	)

	cmd := &cobra.Command{
		Use:   "qubot BINARY",
		Short: "emit a QUBO file, optionally reporting bad-state counts for test vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("unroll") {
				return fmt.Errorf("unicorn: qubot: %w (--unroll is required)", unicorn.ErrConfig)
			}
			solverKind, err := parseSolver(solver)
			if err != nil {
				return err
			}

			c, err := compile(args[0], unroll, solverKind, true)
			if err != nil {
				return err
			}

			l, badLit := lowerToBits(c.u)
			q := qubo.Synthesize(l.Graph(), l.Inputs, badLit)

			if out != "" {
				f, ferr := os.Create(out)
				if ferr != nil {
					return fmt.Errorf("unicorn: qubot: %w", ferr)
				}
				defer f.Close()
				if werr := qubo.Write(f, q); werr != nil {
					return fmt.Errorf("unicorn: qubot: %w", werr)
				}
			}

			if inputs != "" {
				vectors := strings.Split(inputs, ";")
				flat := flattenStepInputs(c.u)
				for _, vec := range vectors {
					values, perr := parseVector(vec, len(flat))
					if perr != nil {
						return fmt.Errorf("unicorn: qubot: %w", perr)
					}
					e := unicorn.NewEvaluator(c.model.Arena)
					e.BindVector(flat, values)
					count := e.CountBad(c.u)
					fmt.Printf("offset:%g, bad states count:%d\n", q.Offset, count)
				}
			}

			return nil
		},
	}

	cmd.Flags().UintVar(&unroll, "unroll", 0, "unrolling depth N")
	cmd.Flags().StringVar(&solver, "solver", "", "SMT backend for pruning: z3|boolector")
	cmd.Flags().StringVar(&out, "out", "", "QUBO output file path")
	cmd.Flags().StringVar(&inputs, "inputs", "", "semicolon-separated test vectors of comma-separated decimals")

	return cmd
}

// flattenStepInputs lists every read-introduced Input id across every
// unrolled step, in the order --inputs' CSV vectors assign to them
// (§6: "comma-separated decimals are assigned to successive
// read-introduced inputs").
func flattenStepInputs(u *unicorn.Unrolled) []unicorn.Id {
	var out []unicorn.Id
	for _, ids := range u.StepInputs {
		out = append(out, ids...)
	}
	return out
}

// parseVector parses a comma-separated decimal vector, repeating its
// last value to fill n entries when shorter, per §6's "last value
// repeats if fewer than required" rule.
func parseVector(vec string, n int) ([]uint64, error) {
	fields := strings.Split(vec, ",")
	values := make([]uint64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input value %q: %w", f, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return make([]uint64, n), nil
	}
	for len(values) < n {
		values = append(values, values[len(values)-1])
	}
	return values, nil
}
