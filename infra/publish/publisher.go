// Package publish hands finished schedule documents to external consumers
// such as the calendar renderer.
package publish

import (
	"context"
	"errors"
	"strings"

	"github.com/kilianp07/careplan/core/factory"
	"github.com/kilianp07/careplan/pkg/export"
)

// Publisher delivers a schedule document.
type Publisher interface {
	Publish(ctx context.Context, doc export.Document) error
	Close() error
}

// Config lists the publishing targets of a run.
type Config struct {
	Targets []factory.ModuleConfig `json:"targets" yaml:"targets"`
}

var registry = factory.NewRegistry[Publisher]()

// RegisterPublisher adds a publisher factory identified by name.
func RegisterPublisher(name string, f factory.Factory[Publisher]) error {
	return registry.Register(name, f)
}

// Types lists the registered publisher names.
func Types() []string { return registry.Names() }

// New creates the publishers listed in cfg. Already created publishers are
// closed when a later one fails.
func New(cfg Config) (Publisher, error) {
	pubs := make([]Publisher, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		p, err := registry.Create(t)
		if err != nil {
			_ = Multi(pubs).Close()
			return nil, err
		}
		pubs = append(pubs, p)
	}
	return Multi(pubs), nil
}

// Multi fans a document out to several publishers.
type Multi []Publisher

// Publish delivers to every publisher and joins the failures.
func (m Multi) Publish(ctx context.Context, doc export.Document) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func expandRunID(s, runID string) string { return strings.ReplaceAll(s, "{run_id}", runID) }

func init() {
	_ = RegisterPublisher("file", func(conf map[string]any) (Publisher, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewFilePublisher(c)
	})
	_ = RegisterPublisher("mqtt", func(conf map[string]any) (Publisher, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTPublisher(c)
	})
	_ = RegisterPublisher("kafka", func(conf map[string]any) (Publisher, error) {
		var c KafkaConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewKafkaPublisher(c)
	})
}
