package history

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/careplan/core/factory"
)

// Config selects the history backend. An empty type disables history.
type Config struct {
	Store factory.ModuleConfig `json:"store" yaml:"store"`
}

// JSONLConfig configures the jsonl backend.
type JSONLConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `json:"path"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	DSN            string        `json:"dsn"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// StoreTypes lists the registered backend names.
func StoreTypes() []string { return storeRegistry.Names() }

// NewStore creates the configured Store, or a NopStore when none is set.
func NewStore(cfg Config) (Store, error) {
	if cfg.Store.Type == "" {
		return NopStore{}, nil
	}
	return storeRegistry.Create(cfg.Store)
}

func init() {
	_ = RegisterStore("nop", func(map[string]any) (Store, error) { return NopStore{}, nil })

	_ = RegisterStore("jsonl", func(conf map[string]any) (Store, error) {
		var c JSONLConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("jsonl history: path is required")
		}
		return NewJSONLStore(c.Path, RotationConfig{
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
			Compress:   c.Compress,
		})
	})

	_ = RegisterStore("sqlite", func(conf map[string]any) (Store, error) {
		var c SQLiteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("sqlite history: path is required")
		}
		return NewSQLiteStore(c.Path)
	})

	_ = RegisterStore("postgres", func(conf map[string]any) (Store, error) {
		var c PostgresConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, errors.New("postgres history: dsn is required")
		}
		if c.ConnectTimeout <= 0 {
			c.ConnectTimeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.ConnectTimeout)
		defer cancel()
		return NewPostgresStore(ctx, c.DSN)
	})
}
