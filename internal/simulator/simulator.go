// Package simulator generates calculation requests and sends them to the
// advisor over MQTT, matching each result to its request. It is used to
// exercise a running advisor end to end.
package simulator

import (
	"context"
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/model/messages"
	"github.com/LeonardoBeccarini/plantcare/pkg/dedup"
	"github.com/LeonardoBeccarini/plantcare/pkg/rabbitmq"
)

// Stats counts what the simulator sent and received.
type Stats struct {
	Sent     int
	Answered int
	Failed   int
	Pending  int
}

type Simulator struct {
	mu           sync.Mutex
	generator    *RequestGenerator
	publisher    rabbitmq.IPublisher
	consumer     rabbitmq.IConsumer
	requestTopic string
	pending      map[string]time.Time
	stats        Stats
	deduper      *dedup.Deduper
	log          zerolog.Logger
}

// NewSimulator publishes to requestTopic, a template such as
// "advisor/request/{request_id}". consumer must be subscribed to the
// advisor's result topics.
func NewSimulator(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, gen *RequestGenerator, requestTopic string) *Simulator {
	return &Simulator{
		generator:    gen,
		publisher:    publisher,
		consumer:     consumer,
		requestTopic: requestTopic,
		pending:      make(map[string]time.Time),
		deduper:      dedup.New(2*time.Minute, 10000),
		log:          logging.With("simulator"),
	}
}

// Start sends one request per interval until ctx is done or count requests
// were sent (count <= 0 means no limit), and handles results meanwhile.
func (s *Simulator) Start(ctx context.Context, interval time.Duration, count int) error {
	if s.generator.choices.empty() {
		return errors.New("simulator: no pot types, plant types or seasons to choose from")
	}
	s.consumer.SetHandler(s.handleResult)
	go func() {
		if err := s.consumer.ConsumeMessage(ctx); err != nil {
			s.log.Error().Err(err).Msg("result consumer stopped")
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for sent := 0; count <= 0 || sent < count; sent++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := s.SendOne(); err != nil {
			s.log.Warn().Err(err).Msg("publish error")
		}
	}
	return nil
}

// SendOne publishes a single generated request.
func (s *Simulator) SendOne() error {
	req := s.generator.Next()
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pending[req.RequestID] = time.Now()
	s.stats.Sent++
	s.mu.Unlock()

	s.log.Debug().
		Str("request_id", req.RequestID).
		Str("pot_type", req.PotType).
		Str("plant_type", req.PlantType).
		Str("season", req.Season).
		Float64("diameter", req.Diameter).
		Float64("height", req.Height).
		Msg("request sent")
	return s.publisher.Publish(rabbitmq.FormatTopic(s.requestTopic, req.RequestID), payload)
}

func (s *Simulator) handleResult(topic string, msg mqtt.Message) error {
	var res messages.CalculationResult
	if err := json.Unmarshal(msg.Payload(), &res); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("invalid result")
		return nil
	}
	if res.RequestID == "" {
		res.RequestID = rabbitmq.LastLevel(topic)
	}
	if !s.deduper.ShouldProcess(res.RequestID) {
		return nil
	}

	s.mu.Lock()
	sentAt, ok := s.pending[res.RequestID]
	if ok {
		delete(s.pending, res.RequestID)
		s.stats.Answered++
		if res.Status != messages.StatusOK {
			s.stats.Failed++
		}
	}
	s.mu.Unlock()
	if !ok {
		// answer to someone else's request
		return nil
	}

	ev := s.log.Info()
	if res.Status != messages.StatusOK {
		ev = s.log.Warn().Str("code", res.Code).Str("reason", res.Reason)
	}
	ev.Str("request_id", res.RequestID).
		Str("status", res.Status).
		Dur("rtt", time.Since(sentAt)).
		Msg("result received")
	return nil
}

func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = len(s.pending)
	return st
}
