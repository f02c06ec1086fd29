package datasource

import (
	"context"
	"time"

	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// Instrumented records fetch latency and failures of src.
type Instrumented struct {
	Source
}

func (s Instrumented) Constants(ctx context.Context) ([]entities.ConstantRecord, error) {
	start := time.Now()
	rows, err := s.Source.Constants(ctx)
	metrics.RecordTableFetch(s.Name(), string(TableConstants), time.Since(start), err)
	return rows, err
}

func (s Instrumented) Records(ctx context.Context) ([]entities.HistoricalRecord, error) {
	start := time.Now()
	rows, err := s.Source.Records(ctx)
	metrics.RecordTableFetch(s.Name(), string(TableRecords), time.Since(start), err)
	return rows, err
}
