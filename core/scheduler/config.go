package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/slot"
)

// BandConfig overrides or adds a time band.
type BandConfig struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// RuleConfig refines the bands of a type for activities whose name contains Keyword.
type RuleConfig struct {
	Type    string   `json:"type" yaml:"type"`
	Keyword string   `json:"keyword" yaml:"keyword"`
	Bands   []string `json:"bands" yaml:"bands"`
}

// SchedulerConfig defines planning parameters loaded from configuration.
type SchedulerConfig struct {
	// Start and End bound the planning window ("YYYY-MM-DD"). When empty the
	// first and last day known to the availability data are used.
	Start              string                `json:"start" yaml:"start"`
	End                string                `json:"end" yaml:"end"`
	HorizonDays        int                   `json:"horizon_days" yaml:"horizon_days"`
	GranularityMinutes int                   `json:"granularity_minutes" yaml:"granularity_minutes"`
	DisableAnytime     bool                  `json:"disable_anytime" yaml:"disable_anytime"`
	Bands              map[string]BandConfig `json:"bands" yaml:"bands"`
	Preferences        map[string][]string   `json:"preferences" yaml:"preferences"`
	Rules              []RuleConfig          `json:"rules" yaml:"rules"`
}

// SetDefaults applies the default look-ahead and alignment.
func (c *SchedulerConfig) SetDefaults() {
	if c.HorizonDays == 0 {
		c.HorizonDays = slot.DefaultHorizonDays
	}
	if c.GranularityMinutes == 0 {
		c.GranularityMinutes = int(slot.DefaultGranularity / time.Minute)
	}
}

// Validate checks the configuration without building the table.
func (c SchedulerConfig) Validate() error {
	if c.HorizonDays < 0 {
		return fmt.Errorf("horizon_days must be positive")
	}
	if c.GranularityMinutes < 0 || c.GranularityMinutes > 60 {
		return fmt.Errorf("granularity_minutes must be between 1 and 60")
	}
	start, end, err := c.window()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end %s before start %s", c.End, c.Start)
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

func (c SchedulerConfig) window() (start, end time.Time, err error) {
	if c.Start != "" {
		if start, err = model.ParseDay(c.Start); err != nil {
			return
		}
	}
	if c.End != "" {
		if end, err = model.ParseDay(c.End); err != nil {
			return
		}
	}
	return
}

// Options returns the slot search options.
func (c SchedulerConfig) Options() slot.Options {
	return slot.Options{
		HorizonDays: c.HorizonDays,
		Granularity: time.Duration(c.GranularityMinutes) * time.Minute,
	}
}

// Table builds the band preference table: the defaults overlaid with the
// configured bands, per-type preferences and rules.
func (c SchedulerConfig) Table() (*slot.Table, error) {
	bands := slot.DefaultBands()
	for name, b := range c.Bands {
		start, err := model.ParseClock(b.Start)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", name, err)
		}
		end, err := model.ParseClock(b.End)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", name, err)
		}
		bands[name] = model.Interval{Start: start, End: end}
	}
	prefs := slot.DefaultPreferences()
	for typ, names := range c.Preferences {
		t, err := model.ParseActivityType(typ)
		if err != nil {
			return nil, err
		}
		prefs[t] = names
	}
	var rules []slot.Rule
	for _, r := range c.Rules {
		t, err := model.ParseActivityType(r.Type)
		if err != nil {
			return nil, err
		}
		rules = append(rules, slot.Rule{Type: t, Keyword: r.Keyword, Bands: r.Bands})
	}
	rules = append(rules, slot.DefaultRules()...)
	return slot.NewTable(bands, prefs, rules, !c.DisableAnytime)
}

// LoadConfig loads SchedulerConfig from a JSON or YAML file.
func LoadConfig(path string) (SchedulerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SchedulerConfig{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg SchedulerConfig
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return SchedulerConfig{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return SchedulerConfig{}, err
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// DecodeConfig reads from r to decode a SchedulerConfig.
func DecodeConfig(r io.Reader, format string) (SchedulerConfig, error) {
	var cfg SchedulerConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
