// Package config loads the planner configuration from a YAML or JSON file
// with K_ prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/careplan/core/history"
	"github.com/kilianp07/careplan/core/metrics"
	"github.com/kilianp07/careplan/core/scheduler"
	_ "github.com/kilianp07/careplan/infra/metrics"
	"github.com/kilianp07/careplan/infra/publish"
)

// Config is the root configuration of the planner.
type Config struct {
	Scheduler scheduler.SchedulerConfig `json:"scheduler"`
	Input     InputConfig               `json:"input"`
	Metrics   metrics.Config            `json:"metrics"`
	History   history.Config            `json:"history"`
	Publish   publish.Config            `json:"publish"`
	Logging   LoggingConfig             `json:"logging"`
}

// Load reads the file at path, applies environment overrides and validates
// the result. An empty path loads defaults and the environment only.
// Environment keys map as K_SCHEDULER__HORIZON_DAYS -> scheduler.horizon_days.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Scheduler.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and reports all failures.
func (c Config) Validate() error {
	var errs []error
	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := c.Input.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("input: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if t := c.History.Store.Type; t != "" && !contains(history.StoreTypes(), t) {
		errs = append(errs, fmt.Errorf("history: unknown store type %q", t))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	for _, p := range c.Publish.Targets {
		if !contains(publish.Types(), p.Type) {
			errs = append(errs, fmt.Errorf("publish: unknown target type %q", p.Type))
		}
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
