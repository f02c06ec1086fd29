package calculator

import (
	"bytes"
	"strconv"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// Similarity band, applied as open intervals around the reference value.
// Bounds are scaled as v*9/10 and v*11/10 rather than v*0.9 and v*1.1 so that
// round references land exactly on their boundary (100*1.1 is not 110).
// For other references either form can be one ulp off the real bound:
// 0.3*9/10 is 0.26999999999999996, so a pot_volume of 0.27 is admitted.
const (
	lowerBandNum = 9
	upperBandNum = 11
	bandDen      = 10
)

func band(v float64) (lo, hi float64) {
	return v * lowerBandNum / bandDen, v * upperBandNum / bandDen
}

// Watering classifies how a planting was watered against its own recommendation.
type Watering int

const (
	// WateringUnknown is only reachable with NaN quantities.
	WateringUnknown Watering = iota
	WateringLess             // actual <= 0.9*recommended
	WateringSimilar          // 0.9*recommended < actual < 1.1*recommended
	WateringMore             // actual >= 1.1*recommended
)

func (w Watering) String() string {
	switch w {
	case WateringLess:
		return "less"
	case WateringSimilar:
		return "similar"
	case WateringMore:
		return "more"
	default:
		return "unknown"
	}
}

// ClassifyWatering places actual against recommended. The similar band excludes
// both of its ends; an actual amount exactly on an end falls to less or more.
func ClassifyWatering(actual, recommended float64) Watering {
	lo, hi := band(recommended)
	switch {
	case actual > lo && actual < hi:
		return WateringSimilar
	case actual <= lo:
		return WateringLess
	case actual >= hi:
		return WateringMore
	default:
		return WateringUnknown
	}
}

// IsSimilar reports whether r matches the selections and its pot volume lies
// strictly inside (0.9*volume, 1.1*volume).
func IsSimilar(r entities.HistoricalRecord, volume float64, potType, plantType, season string) bool {
	if r.PotType != potType || r.PlantType != plantType || r.TimeOfYear != season {
		return false
	}
	lo, hi := band(volume)
	return r.PotVolume > lo && r.PotVolume < hi
}

// Average is a bucket mean. Valid is false for an empty bucket ("no data");
// such an average encodes to JSON null.
type Average struct {
	Value float64
	Valid bool
}

func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, a.Value, 'g', -1, 64), nil
}

func (a *Average) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Average{}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*a = Average{Value: v, Valid: true}
	return nil
}

// BucketStats summarises one group of similar plantings.
type BucketStats struct {
	Count         int     `json:"count"`
	GrowthAverage Average `json:"growth_average"`
	YieldAverage  Average `json:"yield_average"`
}

// SimilarityReport holds the four buckets. SimilarWater, LessWater and
// MoreWater partition Similar.
type SimilarityReport struct {
	Similar      BucketStats `json:"similar"`
	SimilarWater BucketStats `json:"similar_water"`
	LessWater    BucketStats `json:"less_water"`
	MoreWater    BucketStats `json:"more_water"`
}

type accumulator struct {
	count  int
	growth float64
	yield  float64
}

func (a *accumulator) add(r entities.HistoricalRecord) {
	a.count++
	a.growth += r.GrowthRate
	a.yield += r.CropYield
}

func (a accumulator) stats() BucketStats {
	if a.count == 0 {
		return BucketStats{}
	}
	n := float64(a.count)
	return BucketStats{
		Count:         a.count,
		GrowthAverage: Average{Value: a.growth / n, Valid: true},
		YieldAverage:  Average{Value: a.yield / n, Valid: true},
	}
}

// Analyze filters records down to plantings similar to the user's setup and
// buckets them by watering behaviour, in a single pass.
func Analyze(volume float64, potType, plantType, season string, records []entities.HistoricalRecord) SimilarityReport {
	var similar, same, less, more accumulator
	for _, r := range records {
		if !IsSimilar(r, volume, potType, plantType, season) {
			continue
		}
		similar.add(r)
		switch ClassifyWatering(r.ActualWater, r.RecommendedWater) {
		case WateringSimilar:
			same.add(r)
		case WateringLess:
			less.add(r)
		case WateringMore:
			more.add(r)
		}
	}
	return SimilarityReport{
		Similar:      similar.stats(),
		SimilarWater: same.stats(),
		LessWater:    less.stats(),
		MoreWater:    more.stats(),
	}
}
