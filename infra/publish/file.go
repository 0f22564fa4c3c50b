package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilianp07/careplan/pkg/export"
)

// FileConfig configures the file publisher. "{run_id}" in Path is replaced
// by the run id.
type FileConfig struct {
	Path   string `json:"path"`
	Format string `json:"format"` // json (default) or csv
}

// FilePublisher writes the document to disk.
type FilePublisher struct {
	cfg FileConfig
}

// NewFilePublisher validates cfg and returns a FilePublisher.
func NewFilePublisher(cfg FileConfig) (*FilePublisher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file publisher: path is required")
	}
	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Format != "json" && cfg.Format != "csv" {
		return nil, fmt.Errorf("file publisher: unsupported format %q", cfg.Format)
	}
	return &FilePublisher{cfg: cfg}, nil
}

// Path returns the file a document with the given run id is written to.
func (p *FilePublisher) Path(runID string) string {
	return expandRunID(p.cfg.Path, runID)
}

// Publish writes the document, replacing any previous file.
func (p *FilePublisher) Publish(ctx context.Context, doc export.Document) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := p.Path(doc.RunID)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if p.cfg.Format == "csv" {
		return export.WriteCSV(f, doc.Occurrences)
	}
	return export.WriteJSON(f, doc)
}

// Close is a no-op.
func (p *FilePublisher) Close() error { return nil }
