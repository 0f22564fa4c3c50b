package config

import (
	"fmt"

	"github.com/kilianp07/careplan/infra/input"
)

// InputConfig locates the catalog and availability data. Either Path names a
// native document or LegacyPlan and LegacyAvailability name a legacy pair.
type InputConfig struct {
	Path               string `json:"path"`
	LegacyPlan         string `json:"legacy_plan"`
	LegacyAvailability string `json:"legacy_availability"`
}

// Validate rejects half-configured legacy inputs. An empty section is
// accepted since the CLI may supply the paths.
func (c InputConfig) Validate() error {
	if (c.LegacyPlan == "") != (c.LegacyAvailability == "") {
		return fmt.Errorf("legacy_plan and legacy_availability must be set together")
	}
	if c.Path != "" && c.LegacyPlan != "" {
		return fmt.Errorf("path and legacy inputs are mutually exclusive")
	}
	return nil
}

// Empty reports whether no input is configured.
func (c InputConfig) Empty() bool { return c.Path == "" && c.LegacyPlan == "" }

// Load reads the configured input.
func (c InputConfig) Load() (input.Document, error) {
	switch {
	case c.Path != "":
		return input.Load(c.Path)
	case c.LegacyPlan != "":
		return input.LoadLegacy(c.LegacyPlan, c.LegacyAvailability)
	default:
		return input.Document{}, fmt.Errorf("no input configured")
	}
}
