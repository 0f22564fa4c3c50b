// Package input loads catalogs and resource calendars from disk, either in
// the native document layout or in the legacy hourly layout.
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/careplan/core/availability"
	"github.com/kilianp07/careplan/core/model"
)

// Document bundles everything a run needs besides configuration.
type Document struct {
	// Start and End optionally bound the planning window ("YYYY-MM-DD").
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`

	Activities   []model.Activity             `json:"activities" yaml:"activities"`
	Availability []model.ResourceAvailability `json:"availability" yaml:"availability"`
}

// Index builds the availability index from the document calendars.
func (d Document) Index() (*availability.Index, error) {
	return availability.New(d.Availability)
}

// Load reads a document from a .json, .yaml or .yml file.
func Load(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	format, err := formatOf(path)
	if err != nil {
		return Document{}, err
	}
	return Decode(bytes.NewReader(b), format)
}

// Decode reads a document in the given format ("json" or "yaml").
func Decode(r io.Reader, format string) (Document, error) {
	var doc Document
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return doc, fmt.Errorf("decode yaml: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return doc, fmt.Errorf("decode json: %w", err)
		}
	default:
		return doc, fmt.Errorf("unsupported format: %s", format)
	}
	return doc, nil
}

// Encode writes the document in the given format.
func Encode(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func formatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unsupported input format: %s", ext)
	}
}
