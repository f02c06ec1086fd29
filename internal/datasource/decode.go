package datasource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// Table files are arrays of flat objects. Rows are decoded field by field so
// that numbers written as strings ("0,5" included) are still accepted.

func decodeConstants(raw []byte) ([]entities.ConstantRecord, error) {
	rows, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	out := make([]entities.ConstantRecord, 0, len(rows))
	for i, row := range rows {
		var (
			c    entities.ConstantRecord
			errs fieldErrs
		)
		c.Datatype = entities.Datatype(errs.str(row, "datatype"))
		c.Name = errs.str(row, "name")
		c.DataField1 = errs.num(row, "datafield_1")
		c.DataField2 = errs.num(row, "datafield_2")
		if err := errs.err(i); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeRecords(raw []byte) ([]entities.HistoricalRecord, error) {
	rows, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	out := make([]entities.HistoricalRecord, 0, len(rows))
	for i, row := range rows {
		var (
			r    entities.HistoricalRecord
			errs fieldErrs
		)
		r.PotType = errs.str(row, "pot_type")
		r.PlantType = errs.str(row, "plant_type")
		r.TimeOfYear = errs.str(row, "time_of_year")
		r.PotVolume = errs.num(row, "pot_volume")
		r.ActualWater = errs.num(row, "actual_water")
		r.RecommendedWater = errs.num(row, "recommended_water")
		r.GrowthRate = errs.num(row, "growth_rate")
		r.CropYield = errs.num(row, "crop_yield")
		if err := errs.err(i); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeRows(raw []byte) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return rows, nil
}

// fieldErrs collects the first bad field of a row.
type fieldErrs struct {
	first error
}

func (e *fieldErrs) str(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		e.set(fmt.Errorf("%s: expected string, got %T", key, v))
		return ""
	}
}

func (e *fieldErrs) num(row map[string]any, key string) float64 {
	f, err := toF64(row[key])
	if err != nil {
		e.set(fmt.Errorf("%s: %w", key, err))
	}
	return f
}

func (e *fieldErrs) set(err error) {
	if e.first == nil {
		e.first = err
	}
}

func (e *fieldErrs) err(row int) error {
	if e.first == nil {
		return nil
	}
	return fmt.Errorf("row %d: %w", row, e.first)
}

// toF64 accepts JSON numbers, numeric strings and null (as 0).
func toF64(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
