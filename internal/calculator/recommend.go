package calculator

import "github.com/LeonardoBeccarini/plantcare/internal/model/entities"

// waterPerVolume converts pot volume into liters before the pot and season factors.
const waterPerVolume = 0.0001

// Recommendation is the suggested amount of water (liters) and fertilizer (units).
// Values are full precision; rounding is left to the presentation layer.
type Recommendation struct {
	Water      float64 `json:"water"`
	Fertilizer float64 `json:"fertilizer"`
}

// Recommend computes water and fertilizer for a pot of the given volume.
//
//	water      = volume * 0.0001 * pot.datafield_1 * season.datafield_1
//	fertilizer = water * season.datafield_2
//
// Pot, species and season are resolved in that order and the first missing one
// is returned as a *LookupError. The species row must exist but its
// coefficients do not enter the formula.
func Recommend(volume float64, potType, plantType, season string, constants []entities.ConstantRecord) (Recommendation, error) {
	pot, err := FindConstant(constants, entities.DatatypePot, potType)
	if err != nil {
		return Recommendation{}, err
	}
	if _, err := FindConstant(constants, entities.DatatypeSpecies, plantType); err != nil {
		return Recommendation{}, err
	}
	sea, err := FindConstant(constants, entities.DatatypeSeason, season)
	if err != nil {
		return Recommendation{}, err
	}

	water := volume * waterPerVolume * pot.DataField1 * sea.DataField1
	return Recommendation{
		Water:      water,
		Fertilizer: water * sea.DataField2,
	}, nil
}
