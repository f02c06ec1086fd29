package entities

// HistoricalRecord is a past planting: what was grown in which pot, how it was watered
// and how it did. Duplicate rows are valid observations.
type HistoricalRecord struct {
	PotType          string  `json:"pot_type"`
	PlantType        string  `json:"plant_type"`
	TimeOfYear       string  `json:"time_of_year"`
	PotVolume        float64 `json:"pot_volume"`        // same units as the computed pot volume
	ActualWater      float64 `json:"actual_water"`      // liters given
	RecommendedWater float64 `json:"recommended_water"` // liters recommended at the time
	GrowthRate       float64 `json:"growth_rate"`
	CropYield        float64 `json:"crop_yield"`
}
