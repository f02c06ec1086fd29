package advisor

import (
	"github.com/LeonardoBeccarini/plantcare/internal/model/messages"
	"github.com/LeonardoBeccarini/plantcare/internal/validation"
)

// Input is one user calculation: three selections and the pot dimensions.
// Dimensions share the unit of the planting records' pot_volume (cm, giving cm³).
type Input struct {
	PotType   string  `json:"pot_type" validate:"required"`
	PlantType string  `json:"plant_type" validate:"required"`
	Season    string  `json:"season" validate:"required"`
	Diameter  float64 `json:"diameter" validate:"finite,gte=0"`
	Height    float64 `json:"height" validate:"finite,gte=0"`
}

// Validate returns a *validation.Error listing every bad field.
func (in Input) Validate() error {
	return validation.Struct(in)
}

// InputFromRequest converts an MQTT calculation request.
func InputFromRequest(req messages.CalculationRequest) Input {
	return Input{
		PotType:   req.PotType,
		PlantType: req.PlantType,
		Season:    req.Season,
		Diameter:  req.Diameter,
		Height:    req.Height,
	}
}
