package metrics

import (
	"errors"
	"fmt"

	"github.com/kilianp07/careplan/core/factory"
)

// Config lists the sinks every run reports to.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}

// Validate rejects sink types nobody registered.
func (c Config) Validate() error {
	var errs []error
	for i, s := range c.Sinks {
		if !sinkRegistry.Has(s.Type) {
			errs = append(errs, fmt.Errorf("sink %d: unknown type %q", i, s.Type))
		}
	}
	return errors.Join(errs...)
}
