package datasource

import (
	"context"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// Split takes each table from a different source.
type Split struct {
	ConstantsFrom Source
	RecordsFrom   Source
}

func (s Split) Name() string {
	if s.ConstantsFrom.Name() == s.RecordsFrom.Name() {
		return s.ConstantsFrom.Name()
	}
	return s.ConstantsFrom.Name() + "+" + s.RecordsFrom.Name()
}

func (s Split) Constants(ctx context.Context) ([]entities.ConstantRecord, error) {
	return s.ConstantsFrom.Constants(ctx)
}

func (s Split) Records(ctx context.Context) ([]entities.HistoricalRecord, error) {
	return s.RecordsFrom.Records(ctx)
}
