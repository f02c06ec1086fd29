package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/model/messages"
)

// Choices are the names a generated request picks from.
type Choices struct {
	PotTypes   []string
	PlantTypes []string
	Seasons    []string
}

func (c Choices) empty() bool {
	return len(c.PotTypes) == 0 || len(c.PlantTypes) == 0 || len(c.Seasons) == 0
}

// Dimensions bounds the generated pot sizes, inclusive.
type Dimensions struct {
	MinDiameter, MaxDiameter float64
	MinHeight, MaxHeight     float64
}

// DefaultDimensions covers small herb pots up to large tubs, in cm.
var DefaultDimensions = Dimensions{MinDiameter: 8, MaxDiameter: 40, MinHeight: 8, MaxHeight: 35}

// RequestGenerator produces random calculation requests. Safe for
// concurrent use.
type RequestGenerator struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	choices Choices
	dims    Dimensions
	now     func() time.Time
	newID   func() string
}

func NewRequestGenerator(seed int64, choices Choices, dims Dimensions) *RequestGenerator {
	if dims.MaxDiameter < dims.MinDiameter {
		dims.MaxDiameter = dims.MinDiameter
	}
	if dims.MaxHeight < dims.MinHeight {
		dims.MaxHeight = dims.MinHeight
	}
	return &RequestGenerator{
		rnd:     rand.New(rand.NewSource(seed)),
		choices: choices,
		dims:    dims,
		now:     time.Now,
		newID:   logging.NewRequestID,
	}
}

// Next returns a new request with a fresh id. Dimensions are rounded to 0.1.
func (g *RequestGenerator) Next() messages.CalculationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return messages.CalculationRequest{
		RequestID: g.newID(),
		PotType:   pick(g.rnd, g.choices.PotTypes),
		PlantType: pick(g.rnd, g.choices.PlantTypes),
		Season:    pick(g.rnd, g.choices.Seasons),
		Diameter:  between(g.rnd, g.dims.MinDiameter, g.dims.MaxDiameter),
		Height:    between(g.rnd, g.dims.MinHeight, g.dims.MaxHeight),
		Timestamp: g.now().UTC(),
	}
}

func pick(r *rand.Rand, names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[r.Intn(len(names))]
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return math.Round((lo+r.Float64()*(hi-lo))*10) / 10
}
