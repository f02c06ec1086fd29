package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// File names inside a table directory or under a base URL.
const (
	ConstantsFile = "constants.json"
	RecordsFile   = "data.json"
)

// FileSource reads constants.json and data.json from a directory on every call.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Constants(ctx context.Context) ([]entities.ConstantRecord, error) {
	raw, err := s.read(ctx, ConstantsFile)
	if err != nil {
		return nil, fetchErr(s.Name(), TableConstants, err)
	}
	out, err := decodeConstants(raw)
	if err != nil {
		return nil, fetchErr(s.Name(), TableConstants, err)
	}
	return out, nil
}

func (s *FileSource) Records(ctx context.Context) ([]entities.HistoricalRecord, error) {
	raw, err := s.read(ctx, RecordsFile)
	if err != nil {
		return nil, fetchErr(s.Name(), TableRecords, err)
	}
	out, err := decodeRecords(raw)
	if err != nil {
		return nil, fetchErr(s.Name(), TableRecords, err)
	}
	return out, nil
}

func (s *FileSource) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
