package advisor

import (
	"fmt"

	"github.com/LeonardoBeccarini/plantcare/internal/calculator"
)

// noData is shown for the average of an empty bucket.
const noData = "-"

// Display is the report as the calculator page shows it.
type Display struct {
	PotSize      string        `json:"pot_size"` // volume/1000, one decimal
	Water        string        `json:"water"`
	Fertilizer   string        `json:"fertilizer"`
	Similar      BucketDisplay `json:"similar"`
	SimilarWater BucketDisplay `json:"similar_water"`
	LessWater    BucketDisplay `json:"less_water"`
	MoreWater    BucketDisplay `json:"more_water"`
}

type BucketDisplay struct {
	Count         int    `json:"count"`
	GrowthAverage string `json:"growth_average"`
	YieldAverage  string `json:"yield_average"`
}

func newDisplay(volume float64, rec calculator.Recommendation, sim calculator.SimilarityReport) Display {
	return Display{
		PotSize:      fmt.Sprintf("%.1f", volume/1000),
		Water:        fmt.Sprintf("%.1f liters", rec.Water),
		Fertilizer:   fmt.Sprintf("%.2f units", rec.Fertilizer),
		Similar:      bucketDisplay(sim.Similar),
		SimilarWater: bucketDisplay(sim.SimilarWater),
		LessWater:    bucketDisplay(sim.LessWater),
		MoreWater:    bucketDisplay(sim.MoreWater),
	}
}

func bucketDisplay(b calculator.BucketStats) BucketDisplay {
	return BucketDisplay{
		Count:         b.Count,
		GrowthAverage: formatAverage(b.GrowthAverage),
		YieldAverage:  formatAverage(b.YieldAverage),
	}
}

func formatAverage(a calculator.Average) string {
	if !a.Valid {
		return noData
	}
	return fmt.Sprintf("%.1f", a.Value)
}
