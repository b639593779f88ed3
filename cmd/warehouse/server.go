package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
	"github.com/elektrokombinacija/warehouse-mapf/internal/client"
	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/stats"
)

func newServerCmd(root *rootOptions) *cobra.Command {
	var solverName string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Speak the level server protocol on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			solve := func(level *core.Level) *algo.Result {
				solver, err := buildSolver(solverName, level, root.options(), root.log)
				if err != nil {
					root.log.WithError(err).Error("solver setup failed")
					return &algo.Result{Reason: algo.ReasonInfeasibleInitial}
				}
				reporter := stats.NewReporter(os.Stdout)
				if cbs, ok := solver.(*algo.CBS); ok {
					cbs.SetStatus(reporter.Report)
				}
				result := solver.Solve()
				stats.SolveDuration.Observe(result.Stats.Elapsed.Seconds())
				return result
			}
			return client.Run(os.Stdin, os.Stdout, solve, root.log)
		},
	}

	cmd.Flags().StringVar(&solverName, "solver", "cbs", "solver to use (cbs, prioritized)")
	return cmd
}
