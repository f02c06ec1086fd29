package advisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

type fakeSource struct {
	constants    []entities.ConstantRecord
	records      []entities.HistoricalRecord
	constantsErr error
	recordsErr   error
	calls        atomic.Int32
}

func (f *fakeSource) Constants(context.Context) ([]entities.ConstantRecord, error) {
	f.calls.Add(1)
	if f.constantsErr != nil {
		return nil, f.constantsErr
	}
	return f.constants, nil
}

func (f *fakeSource) Records(context.Context) ([]entities.HistoricalRecord, error) {
	f.calls.Add(1)
	if f.recordsErr != nil {
		return nil, f.recordsErr
	}
	return f.records, nil
}

func (f *fakeSource) Name() string { return "fake" }

var errUpstream = errors.New("connection refused")

func unavailable(table datasource.Table) error {
	return &datasource.FetchError{Source: "fake", Table: table, Err: errUpstream}
}

// newFakeSource holds one Clay/Tomato/Summer setup. A 10x10 pot has a volume
// of about 785.4, so the 800 and 750 records are similar and the 700 one is not.
func newFakeSource() *fakeSource {
	return &fakeSource{
		constants: []entities.ConstantRecord{
			{Datatype: entities.DatatypePot, Name: "Clay", DataField1: 2},
			{Datatype: entities.DatatypePot, Name: "Plastic", DataField1: 1},
			{Datatype: entities.DatatypeSpecies, Name: "Tomato", DataField1: 7, DataField2: 9},
			{Datatype: entities.DatatypeSpecies, Name: "Basil", DataField1: 1, DataField2: 1},
			{Datatype: entities.DatatypeSeason, Name: "Summer", DataField1: 1.5, DataField2: 0.5},
			{Datatype: entities.DatatypePot, Name: "Clay", DataField1: 100},
		},
		records: []entities.HistoricalRecord{
			{PotType: "Clay", PlantType: "Tomato", TimeOfYear: "Summer", PotVolume: 800, ActualWater: 1, RecommendedWater: 1, GrowthRate: 2, CropYield: 4},
			{PotType: "Clay", PlantType: "Tomato", TimeOfYear: "Summer", PotVolume: 750, ActualWater: 0.5, RecommendedWater: 1, GrowthRate: 1, CropYield: 3},
			{PotType: "Clay", PlantType: "Tomato", TimeOfYear: "Summer", PotVolume: 700, ActualWater: 3, RecommendedWater: 1, GrowthRate: 9, CropYield: 9},
			{PotType: "Clay", PlantType: "Basil", TimeOfYear: "Summer", PotVolume: 800, ActualWater: 3, RecommendedWater: 1, GrowthRate: 9, CropYield: 9},
		},
	}
}

func validInput() Input {
	return Input{PotType: "Clay", PlantType: "Tomato", Season: "Summer", Diameter: 10, Height: 10}
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	topics   []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.topics)
}
