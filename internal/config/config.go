// Package config loads planner configuration from defaults, an optional
// config file, and WAREHOUSE_* environment variables, in that order.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
)

// Config is the process configuration.
type Config struct {
	LogLevel    string  `mapstructure:"log_level"`
	MetricsAddr string  `mapstructure:"metrics_addr"`
	Planner     Planner `mapstructure:"planner"`
}

// Planner is the planner control block.
type Planner struct {
	ExpansionBudget int     `mapstructure:"expansion_budget"`
	NodeBudget      int     `mapstructure:"node_budget"`
	Horizon         int     `mapstructure:"horizon"`
	TimeoutSeconds  float64 `mapstructure:"timeout_seconds"`
	StatusEvery     int     `mapstructure:"status_every"`
	MaxMemoryMB     float64 `mapstructure:"max_memory_mb"`
}

// Options converts the planner block into search options, resolving the
// timeout into a deadline relative to now.
func (p Planner) Options() algo.Options {
	opts := algo.Options{
		ExpansionBudget: p.ExpansionBudget,
		NodeBudget:      p.NodeBudget,
		Horizon:         p.Horizon,
		StatusEvery:     p.StatusEvery,
		MaxMemoryMB:     p.MaxMemoryMB,
	}
	if p.TimeoutSeconds > 0 {
		opts.Deadline = time.Now().Add(time.Duration(p.TimeoutSeconds * float64(time.Second)))
	}
	return opts
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")

	def := algo.DefaultOptions()
	v.SetDefault("planner.expansion_budget", def.ExpansionBudget)
	v.SetDefault("planner.node_budget", def.NodeBudget)
	v.SetDefault("planner.horizon", def.Horizon)
	v.SetDefault("planner.timeout_seconds", 0.0)
	v.SetDefault("planner.status_every", def.StatusEvery)
	v.SetDefault("planner.max_memory_mb", 0.0)

	v.SetEnvPrefix("warehouse")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}
