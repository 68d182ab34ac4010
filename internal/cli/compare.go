package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/engine"
	"github.com/piwi3910/roomlayout/internal/project"
)

func (c *CLI) compareCommand() *cobra.Command {
	var opts optimizeOpts

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Optimize under several what-if scenarios and compare the results",
		Long: `Compare runs the optimizer with the current settings and with alternatives:
the other objective mode, the other refiner, wider door clearances and a
larger population.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := c.loadInput(opts.input)
			if err != nil {
				return err
			}
			if err := applyOverrides(cmd, &rc.Config.Settings, opts); err != nil {
				return err
			}
			return c.runCompare(rc)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVar(&opts.objective, "objective", "", "single or multi")
	cmd.Flags().StringVar(&opts.refiner, "refiner", "", "none, try_fail or nelder_mead")
	cmd.Flags().IntVar(&opts.population, "population", 0, "population size")
	cmd.Flags().IntVar(&opts.generations, "generations", 0, "number of generations")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "evaluation workers (0 = one per CPU)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed")
	return cmd
}

func (c *CLI) runCompare(rc *project.RoomConfig) error {
	scenarios := engine.BuildDefaultScenarios(rc.Config)
	c.Logger.Info("comparing scenarios", "count", len(scenarios))

	prog := newProgress(c.Logger)
	results := engine.CompareScenarios(scenarios, rc.Room, rc.Manifest, &rc.Constraints)
	prog.done(fmt.Sprintf("Compared %d scenarios", len(results)))

	best := -1
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			rows = append(rows, []string{r.Scenario.Name, "error", "", "", "", r.Err.Error()})
			continue
		}
		if best < 0 || r.Score > results[best].Score {
			best = i
		}
		note := ""
		if r.Grown {
			note = "room grown"
		}
		rows = append(rows, []string{
			r.Scenario.Name,
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("%d", r.Placed),
			fmt.Sprintf("%d", r.Removed),
			fmt.Sprintf("%.0f%%", r.Relations),
			note,
		})
	}

	out := c.printer()
	out.table([]string{"Scenario", "Score", "Placed", "Removed", "Relations", "Notes"}, rows)
	if best >= 0 {
		out.success("Best: %s", results[best].Scenario.Name)
	} else {
		out.failure("Every scenario failed")
	}
	return nil
}
