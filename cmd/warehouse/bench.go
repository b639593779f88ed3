package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/warehouse-mapf/internal/levelio"
	"github.com/elektrokombinacija/warehouse-mapf/internal/stats"
)

func newBenchCmd(root *rootOptions) *cobra.Command {
	var (
		solvers []string
		csvOut  string
	)

	cmd := &cobra.Command{
		Use:   "bench <level-glob>...",
		Short: "Benchmark solvers across level files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			for _, pattern := range args {
				matches, err := filepath.Glob(pattern)
				if err != nil {
					return errors.Wrapf(err, "bad pattern %q", pattern)
				}
				files = append(files, matches...)
			}
			if len(files) == 0 {
				return errors.New("no level files matched")
			}
			sort.Strings(files)

			records := [][]string{{
				"level", "solver", "solved", "reason",
				"sum_of_costs", "plan_length", "expanded", "elapsed_ms",
			}}

			for _, file := range files {
				f, err := os.Open(file)
				if err != nil {
					return errors.Wrapf(err, "opening %s", file)
				}
				level, err := levelio.Parse(f)
				f.Close()
				if err != nil {
					root.log.WithField("file", file).WithError(err).Warn("skipping level")
					continue
				}

				for _, name := range solvers {
					solver, err := buildSolver(name, level, root.options(), root.log)
					if err != nil {
						return err
					}
					result := solver.Solve()
					stats.SolveDuration.Observe(result.Stats.Elapsed.Seconds())

					root.log.WithFields(logrus.Fields{
						"level":        filepath.Base(file),
						"solver":       solver.Name(),
						"solved":       result.Solved,
						"reason":       string(result.Reason),
						"sum_of_costs": result.SumOfCosts,
						"expanded":     result.Stats.Expanded,
						"elapsed":      result.Stats.Elapsed,
					}).Info("bench result")

					records = append(records, []string{
						filepath.Base(file),
						solver.Name(),
						strconv.FormatBool(result.Solved),
						string(result.Reason),
						strconv.Itoa(result.SumOfCosts),
						strconv.Itoa(len(result.Plan)),
						strconv.Itoa(result.Stats.Expanded),
						fmt.Sprintf("%.1f", float64(result.Stats.Elapsed.Microseconds())/1000),
					})
				}
			}

			if csvOut != "" {
				f, err := os.Create(csvOut)
				if err != nil {
					return errors.Wrap(err, "creating csv")
				}
				defer f.Close()
				w := csv.NewWriter(f)
				if err := w.WriteAll(records); err != nil {
					return errors.Wrap(err, "writing csv")
				}
				root.log.WithField("file", csvOut).Info("results written")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&solvers, "solvers", []string{"cbs", "prioritized"}, "solvers to benchmark")
	cmd.Flags().StringVar(&csvOut, "csv", "", "write results to a CSV file")
	return cmd
}
