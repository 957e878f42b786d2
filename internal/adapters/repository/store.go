// Package repository provides the roster sources the hero catalog is loaded
// from.
package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/draftnexus/internal/domain/hero"
)

// FileSource reads the ETL roster export, a JSON array of hero records.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs.
func (s *FileSource) Name() string { return "file:" + s.path }

// Records reads and decodes the roster file.
func (s *FileSource) Records(ctx context.Context) ([]hero.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.path == "" {
		return nil, fmt.Errorf("%w: empty roster path", ErrRosterUnavailable)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}
	return hero.DecodeRecords(data)
}
