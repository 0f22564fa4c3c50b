package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/natefinch/lumberjack.v2"
)

// JSONLStore stores run records as JSON lines. With rotation enabled the
// file is rolled by lumberjack and Query reads the rotated files too,
// compressed or not.
type JSONLStore struct {
	mu   sync.Mutex
	path string
	w    io.WriteCloser
}

// RotationConfig sets the rotation limits in megabytes and days.
type RotationConfig struct {
	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool `json:"compress" yaml:"compress"`
}

// NewJSONLStore opens or creates the file at path. A zero rotation config
// appends to a single file.
func NewJSONLStore(path string, rot RotationConfig) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if rot.MaxSizeMB > 0 {
		return &JSONLStore{path: path, w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
		}}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLStore{path: path, w: f}, nil
}

// Append writes the record as one line.
func (s *JSONLStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.w).Encode(rec)
}

// Query scans the current file and any rotated siblings. Lines that do not
// decode are skipped.
func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	var res []Record
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readJSONL(name, q)
		if err != nil {
			return nil, err
		}
		res = append(res, recs...)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return q.limit(res), nil
}

// files lists the rotated backups lumberjack leaves next to the active file
// ("name-<timestamp>.ext", gzipped to "name-<timestamp>.ext.gz" with
// Compress) followed by the active file. While a backup is being compressed
// both forms exist and the plain one is read.
func (s *JSONLStore) files() ([]string, error) {
	ext := filepath.Ext(s.path)
	base := s.path[:len(s.path)-len(ext)]
	rotated, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	gzipped, err := filepath.Glob(base + "-*" + ext + gzExt)
	if err != nil {
		return nil, err
	}
	plain := make(map[string]struct{}, len(rotated))
	for _, name := range rotated {
		plain[name] = struct{}{}
	}
	out := rotated
	for _, name := range gzipped {
		if _, ok := plain[strings.TrimSuffix(name, gzExt)]; !ok {
			out = append(out, name)
		}
	}
	if _, err := os.Stat(s.path); err == nil {
		out = append(out, s.path)
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return out, nil
}

const gzExt = ".gz"

func readJSONL(name string, q Query) ([]Record, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var r io.Reader = f
	if strings.HasSuffix(name, gzExt) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	var res []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if q.Match(rec) {
			res = append(res, rec)
		}
	}
	return res, scanner.Err()
}

// Close closes the underlying writer.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
