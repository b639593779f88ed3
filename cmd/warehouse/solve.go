package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/levelio"
	"github.com/elektrokombinacija/warehouse-mapf/internal/sim"
	"github.com/elektrokombinacija/warehouse-mapf/internal/stats"
)

func newSolveCmd(root *rootOptions) *cobra.Command {
	var (
		solverName string
		validate   bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "solve <level-file>",
		Short: "Solve a level file and print the joint plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening level")
			}
			defer f.Close()

			level, err := levelio.Parse(f)
			if err != nil {
				return err
			}
			root.log.WithField("level", level.String()).Info("level loaded")

			solver, err := buildSolver(solverName, level, root.options(), root.log)
			if err != nil {
				return err
			}

			reporter := stats.NewReporter(os.Stdout)
			if cbs, ok := solver.(*algo.CBS); ok {
				cbs.SetStatus(reporter.Report)
			}

			result := solver.Solve()
			stats.SolveDuration.Observe(result.Stats.Elapsed.Seconds())

			if !result.Solved {
				root.log.WithFields(logrus.Fields{
					"reason":   string(result.Reason),
					"expanded": result.Stats.Expanded,
					"elapsed":  result.Stats.Elapsed,
				}).Error("no solution")
				return nil
			}

			root.log.WithFields(logrus.Fields{
				"length":       len(result.Plan),
				"sum_of_costs": result.SumOfCosts,
				"expanded":     result.Stats.Expanded,
				"generated":    result.Stats.Generated,
				"elapsed":      result.Stats.Elapsed,
			}).Info("solution found")

			if validate {
				if _, err := sim.Validate(level, result.Plan); err != nil {
					return errors.Wrap(err, "plan validation")
				}
				root.log.Info("plan validated")
			}

			if !quiet {
				fmt.Println(result.Plan.Format())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&solverName, "solver", "cbs", "solver to use (cbs, prioritized)")
	cmd.Flags().BoolVar(&validate, "validate", false, "replay the plan against the level before printing")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress plan output")
	return cmd
}

func buildSolver(name string, level *core.Level, opts algo.Options, log *logrus.Entry) (algo.Solver, error) {
	switch name {
	case "cbs":
		return algo.NewCBS(level, opts, log), nil
	case "prioritized":
		return algo.NewPrioritized(level, opts, log), nil
	default:
		return nil, errors.Errorf("unknown solver %q", name)
	}
}
