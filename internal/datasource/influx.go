package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// ErrNoConstants is returned by sources that only hold planting records.
var ErrNoConstants = errors.New("source holds no constants table")

// Tag and field keys of a planting point.
const (
	tagPotType    = "pot_type"
	tagPlantType  = "plant_type"
	tagTimeOfYear = "time_of_year"
)

var recordFields = []string{
	"pot_volume", "actual_water", "recommended_water", "growth_rate", "crop_yield",
}

// InfluxConfig locates the planting measurement.
type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Lookback    time.Duration
}

type fluxQuerier interface {
	Query(ctx context.Context, flux string) (*api.QueryTableResult, error)
}

// InfluxSource reads historical plantings from an InfluxDB 2 bucket. Each
// planting is one point: categories as tags, quantities as fields.
type InfluxSource struct {
	client      influxdb2.Client
	query       fluxQuerier
	bucket      string
	measurement string
	lookback    time.Duration
}

func NewInfluxSource(cfg InfluxConfig) *InfluxSource {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	s := newInfluxSource(client.QueryAPI(cfg.Org), cfg)
	s.client = client
	return s
}

func newInfluxSource(q fluxQuerier, cfg InfluxConfig) *InfluxSource {
	if cfg.Measurement == "" {
		cfg.Measurement = "planting_record"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 5 * 365 * 24 * time.Hour
	}
	return &InfluxSource{
		query:       q,
		bucket:      cfg.Bucket,
		measurement: cfg.Measurement,
		lookback:    cfg.Lookback,
	}
}

func (s *InfluxSource) Name() string { return "influx" }

// Close releases the client's connections.
func (s *InfluxSource) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Ping checks that the server is reachable.
func (s *InfluxSource) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("influx ping failed")
	}
	return nil
}

func (s *InfluxSource) Constants(context.Context) ([]entities.ConstantRecord, error) {
	return nil, fetchErr(s.Name(), TableConstants, ErrNoConstants)
}

func (s *InfluxSource) Records(ctx context.Context) ([]entities.HistoricalRecord, error) {
	res, err := s.query.Query(ctx, buildFlux(s.bucket, s.measurement, s.lookback))
	if err != nil {
		return nil, fetchErr(s.Name(), TableRecords, fmt.Errorf("query: %w", err))
	}
	defer func() { _ = res.Close() }()

	out := make([]entities.HistoricalRecord, 0, 64)
	for res.Next() {
		r, err := recordFromFlux(res.Record())
		if err != nil {
			return nil, fetchErr(s.Name(), TableRecords, err)
		}
		out = append(out, r)
	}
	if err := res.Err(); err != nil {
		return nil, fetchErr(s.Name(), TableRecords, fmt.Errorf("read result: %w", err))
	}
	return out, nil
}

// buildFlux pivots the planting fields into one row per point.
func buildFlux(bucket, measurement string, lookback time.Duration) string {
	cols := append([]string{"_time", tagPotType, tagPlantType, tagTimeOfYear}, recordFields...)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> keep(columns: [%s])
  |> group()
  |> sort(columns: ["_time"])
`, bucket, int64(lookback.Seconds()), measurement, strings.Join(quoted, ","))
}

func recordFromFlux(rec *query.FluxRecord) (entities.HistoricalRecord, error) {
	var (
		r    entities.HistoricalRecord
		errs fieldErrs
	)
	vals := rec.Values()
	r.PotType = errs.str(vals, tagPotType)
	r.PlantType = errs.str(vals, tagPlantType)
	r.TimeOfYear = errs.str(vals, tagTimeOfYear)
	r.PotVolume = errs.num(vals, "pot_volume")
	r.ActualWater = errs.num(vals, "actual_water")
	r.RecommendedWater = errs.num(vals, "recommended_water")
	r.GrowthRate = errs.num(vals, "growth_rate")
	r.CropYield = errs.num(vals, "crop_yield")
	if errs.first != nil {
		return r, fmt.Errorf("point at %s: %w", rec.Time().UTC().Format(time.RFC3339), errs.first)
	}
	return r, nil
}
