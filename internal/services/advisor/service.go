// Package advisor serves pot watering and fertilizer recommendations over
// HTTP, gRPC and MQTT. Every transport goes through Service, which fetches
// the tables and runs the calculator.
package advisor

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/plantcare/internal/calculator"
	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
	"github.com/LeonardoBeccarini/plantcare/internal/validation"
)

// Report is the result of one calculation.
type Report struct {
	RequestID      string                      `json:"request_id,omitempty"`
	Input          Input                       `json:"input"`
	Volume         float64                     `json:"volume"`
	Recommendation calculator.Recommendation   `json:"recommendation"`
	Similarity     calculator.SimilarityReport `json:"similarity"`
	Display        Display                     `json:"display"`
}

// Options lists the names selectable for each input, in table order.
type Options struct {
	PotTypes   []string `json:"pot_types"`
	PlantTypes []string `json:"plant_types"`
	Seasons    []string `json:"seasons"`
}

type Service struct {
	src datasource.Source
	log zerolog.Logger
}

func NewService(src datasource.Source) *Service {
	return &Service{src: src, log: logging.With("advisor")}
}

// Calculate validates in, fetches both tables concurrently and computes the
// report. An unknown selection fails the whole calculation; no statistics
// are returned without a recommendation.
func (s *Service) Calculate(ctx context.Context, in Input) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		constants []entities.ConstantRecord
		records   []entities.HistoricalRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		constants, err = s.src.Constants(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = s.src.Records(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	volume := calculator.ComputeVolume(in.Diameter, in.Height)
	rec, err := calculator.Recommend(volume, in.PotType, in.PlantType, in.Season, constants)
	if err != nil {
		return nil, err
	}
	if !finite(volume, rec.Water, rec.Fertilizer) {
		return nil, errOverflow
	}
	sim := calculator.Analyze(volume, in.PotType, in.PlantType, in.Season, records)
	metrics.SimilarRecords.Observe(float64(sim.Similar.Count))

	return &Report{
		RequestID:      logging.RequestIDFromContext(ctx),
		Input:          in,
		Volume:         volume,
		Recommendation: rec,
		Similarity:     sim,
		Display:        newDisplay(volume, rec, sim),
	}, nil
}

// errOverflow rejects dimensions that are finite on their own but whose
// volume or dose is not representable.
var errOverflow = &validation.Error{Fields: []validation.FieldError{{
	Field:   "diameter",
	Tag:     "finite",
	Message: "diameter and height are too large: the pot volume is not a finite number",
}}}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Options reads the constants table and lists the names per selector.
func (s *Service) Options(ctx context.Context) (*Options, error) {
	constants, err := s.src.Constants(ctx)
	if err != nil {
		return nil, err
	}
	return &Options{
		PotTypes:   calculator.Names(constants, entities.DatatypePot),
		PlantTypes: calculator.Names(constants, entities.DatatypeSpecies),
		Seasons:    calculator.Names(constants, entities.DatatypeSeason),
	}, nil
}

// Ready fetches both tables, which warms the cache when one is configured.
func (s *Service) Ready(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.src.Constants(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.src.Records(gctx)
		return err
	})
	return g.Wait()
}

// observe records metrics and one log line for a finished calculation.
func (s *Service) observe(ctx context.Context, transport string, in Input, start time.Time, rep *Report, err error) {
	d := time.Since(start)
	metrics.RecordCalculation(transport, outcome(err), d)

	log := logging.Ctx(ctx, s.log)
	var ev *zerolog.Event
	if err != nil {
		lvl := zerolog.InfoLevel
		if code := ErrorCode(err); code == CodeDataUnavailable || code == CodeInternal {
			lvl = zerolog.ErrorLevel
		}
		ev = log.WithLevel(lvl).Err(err).Str("code", ErrorCode(err))
	} else {
		ev = log.Info().
			Float64("volume", rep.Volume).
			Float64("water", rep.Recommendation.Water).
			Int("similar", rep.Similarity.Similar.Count)
	}
	ev.Str("transport", transport).
		Str("pot_type", in.PotType).
		Str("plant_type", in.PlantType).
		Str("season", in.Season).
		Dur("took", d).
		Msg("calculation")
}
