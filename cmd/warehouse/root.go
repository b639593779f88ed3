package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
	"github.com/elektrokombinacija/warehouse-mapf/internal/config"
	"github.com/elektrokombinacija/warehouse-mapf/internal/stats"
)

type rootOptions struct {
	configPath  string
	logLevel    string
	metricsAddr string

	expansions  int
	nodeBudget  int
	horizon     int
	timeoutSec  float64
	statusEvery int
	maxMemoryMB float64

	cfg *config.Config
	log *logrus.Entry
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "warehouse",
		Short:         "Warehouse MAPF planner (Conflict-Based Search)",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.Flags())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address")
	pf.IntVar(&opts.expansions, "expansions", 0, "high-level expansion budget")
	pf.IntVar(&opts.nodeBudget, "node-budget", 0, "low-level node budget per replan")
	pf.IntVar(&opts.horizon, "horizon", 0, "low-level time horizon")
	pf.Float64Var(&opts.timeoutSec, "timeout", 0, "wall-clock timeout in seconds")
	pf.IntVar(&opts.statusEvery, "status-every", 0, "status line cadence in expansions")
	pf.Float64Var(&opts.maxMemoryMB, "max-memory", 0, "memory trip in MB (0 disables)")

	cmd.AddCommand(
		newSolveCmd(opts),
		newServerCmd(opts),
		newGenCmd(opts),
		newBenchCmd(opts),
	)
	return cmd
}

// setup loads the config file and lets explicitly set flags override it.
// Logs always go to stderr: stdout belongs to the protocol.
func (o *rootOptions) setup(flags *pflag.FlagSet) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	if flags.Changed("expansions") {
		cfg.Planner.ExpansionBudget = o.expansions
	}
	if flags.Changed("node-budget") {
		cfg.Planner.NodeBudget = o.nodeBudget
	}
	if flags.Changed("horizon") {
		cfg.Planner.Horizon = o.horizon
	}
	if flags.Changed("timeout") {
		cfg.Planner.TimeoutSeconds = o.timeoutSec
	}
	if flags.Changed("status-every") {
		cfg.Planner.StatusEvery = o.statusEvery
	}
	if flags.Changed("max-memory") {
		cfg.Planner.MaxMemoryMB = o.maxMemoryMB
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	o.log = logrus.NewEntry(logger)

	if cfg.MetricsAddr != "" {
		stats.Serve(cfg.MetricsAddr, o.log)
	}
	return nil
}

// options resolves the planner options (the timeout deadline is taken
// relative to the moment of the call).
func (o *rootOptions) options() algo.Options {
	return o.cfg.Planner.Options()
}
