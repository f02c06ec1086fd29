package simulator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plantcare/internal/model/messages"
	"github.com/LeonardoBeccarini/plantcare/pkg/rabbitmq"
)

var testChoices = Choices{
	PotTypes:   []string{"Clay", "Plastic"},
	PlantTypes: []string{"Tomato"},
	Seasons:    []string{"Summer", "Winter"},
}

func TestRequestGeneratorNext(t *testing.T) {
	g := NewRequestGenerator(42, testChoices, Dimensions{MinDiameter: 10, MaxDiameter: 20, MinHeight: 5, MaxHeight: 5})
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		req := g.Next()
		assert.NotEmpty(t, req.RequestID)
		assert.False(t, seen[req.RequestID], "ids are unique")
		seen[req.RequestID] = true

		assert.Contains(t, testChoices.PotTypes, req.PotType)
		assert.Equal(t, "Tomato", req.PlantType)
		assert.Contains(t, testChoices.Seasons, req.Season)
		assert.GreaterOrEqual(t, req.Diameter, 10.0)
		assert.LessOrEqual(t, req.Diameter, 20.0)
		assert.Equal(t, 5.0, req.Height)
		assert.InDelta(t, req.Diameter, float64(int(req.Diameter*10+0.5))/10, 1e-9)
		assert.False(t, req.Timestamp.IsZero())
	}
}

func TestRequestGeneratorDeterministic(t *testing.T) {
	a := NewRequestGenerator(7, testChoices, DefaultDimensions)
	b := NewRequestGenerator(7, testChoices, DefaultDimensions)
	for i := 0; i < 10; i++ {
		ra, rb := a.Next(), b.Next()
		assert.Equal(t, ra.PotType, rb.PotType)
		assert.Equal(t, ra.Season, rb.Season)
		assert.Equal(t, ra.Diameter, rb.Diameter)
		assert.Equal(t, ra.Height, rb.Height)
	}
}

func TestRequestGeneratorClampsInvertedBounds(t *testing.T) {
	g := NewRequestGenerator(1, testChoices, Dimensions{MinDiameter: 12, MaxDiameter: 3, MinHeight: 4, MaxHeight: 4})
	assert.Equal(t, 12.0, g.Next().Diameter)
}

func newTestSimulator(pub *fakePublisher, cons *fakeConsumer) *Simulator {
	n := 0
	gen := NewRequestGenerator(1, testChoices, DefaultDimensions)
	gen.newID = func() string { n++; return fmt.Sprintf("sim-%d", n) }
	sim := NewSimulator(cons, pub, gen, "advisor/request/{request_id}")
	cons.SetHandler(sim.handleResult)
	return sim
}

func result(t *testing.T, id, status string) []byte {
	t.Helper()
	b, err := json.Marshal(messages.CalculationResult{RequestID: id, Status: status, Timestamp: time.Now()})
	require.NoError(t, err)
	return b
}

func TestSimulatorSendOne(t *testing.T) {
	pub := &fakePublisher{}
	sim := newTestSimulator(pub, &fakeConsumer{})

	require.NoError(t, sim.SendOne())
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "advisor/request/sim-1", pub.topics[0])

	var req messages.CalculationRequest
	require.NoError(t, json.Unmarshal(pub.payloads[0], &req))
	assert.Equal(t, "sim-1", req.RequestID)
	assert.Equal(t, Stats{Sent: 1, Pending: 1}, sim.Stats())
}

func TestSimulatorMatchesResults(t *testing.T) {
	pub := &fakePublisher{}
	cons := &fakeConsumer{}
	sim := newTestSimulator(pub, cons)

	require.NoError(t, sim.SendOne())
	require.NoError(t, sim.SendOne())

	require.NoError(t, cons.deliver("advisor/result/sim-1", result(t, "sim-1", messages.StatusOK)))
	require.NoError(t, cons.deliver("advisor/result/sim-1", result(t, "sim-1", messages.StatusOK)))
	require.NoError(t, cons.deliver("advisor/result/sim-2", result(t, "", messages.StatusFail)))
	require.NoError(t, cons.deliver("advisor/result/other", result(t, "other", messages.StatusOK)))
	require.NoError(t, cons.deliver("advisor/result/bad", []byte("{")))

	assert.Equal(t, Stats{Sent: 2, Answered: 2, Failed: 1, Pending: 0}, sim.Stats())
}

func TestSimulatorStart(t *testing.T) {
	cons := &fakeConsumer{}
	pub := &fakePublisher{}
	// answer every request immediately, like a running advisor would
	pub.onPublish = func(topic string, payload []byte) {
		id := rabbitmq.LastLevel(topic)
		_ = cons.deliver(strings.Replace(topic, "request", "result", 1), result(t, id, messages.StatusOK))
	}
	sim := newTestSimulator(pub, cons)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sim.Start(ctx, time.Millisecond, 3))
	assert.Equal(t, Stats{Sent: 3, Answered: 3}, sim.Stats())
}

func TestSimulatorStartWithoutChoices(t *testing.T) {
	sim := NewSimulator(&fakeConsumer{}, &fakePublisher{}, NewRequestGenerator(1, Choices{}, DefaultDimensions), "advisor/request/{request_id}")
	assert.Error(t, sim.Start(context.Background(), time.Millisecond, 1))
}
