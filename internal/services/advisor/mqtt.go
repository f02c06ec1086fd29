package advisor

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/model/messages"
	"github.com/LeonardoBeccarini/plantcare/pkg/dedup"
	"github.com/LeonardoBeccarini/plantcare/pkg/rabbitmq"
)

const transportMQTT = "mqtt"

// Responder answers calculation requests received over MQTT. Each request
// produces exactly one CalculationResult on the result topic; redeliveries of
// an already answered request are dropped.
type Responder struct {
	svc         *Service
	consumer    rabbitmq.IConsumer
	publisher   rabbitmq.IPublisher
	resultTopic string
	seen        *dedup.Deduper
	now         func() time.Time
	log         zerolog.Logger
}

func NewResponder(svc *Service, consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, resultTopic string, seen *dedup.Deduper) *Responder {
	if seen == nil {
		seen = dedup.New(10*time.Minute, 10000)
	}
	return &Responder{
		svc:         svc,
		consumer:    consumer,
		publisher:   publisher,
		resultTopic: resultTopic,
		seen:        seen,
		now:         time.Now,
		log:         logging.With("mqtt"),
	}
}

// Start installs the handler and consumes until ctx is done.
func (r *Responder) Start(ctx context.Context) error {
	r.consumer.SetHandler(func(topic string, msg mqtt.Message) error {
		return r.handle(ctx, topic, msg.Payload())
	})
	return r.consumer.ConsumeMessage(ctx)
}

func (r *Responder) handle(ctx context.Context, topic string, payload []byte) error {
	var req messages.CalculationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		// A malformed payload can't be retried into something valid.
		metrics.MQTTMessages.WithLabelValues("malformed").Inc()
		r.log.Warn().Err(err).Str("topic", topic).Msg("invalid JSON")
		id := rabbitmq.LastLevel(topic)
		if id == "" || id == "+" {
			return nil
		}
		return r.reply(messages.CalculationResult{
			RequestID: id,
			Status:    messages.StatusFail,
			Code:      CodeInvalidInput,
			Reason:    "malformed request: " + err.Error(),
		})
	}
	if req.RequestID == "" {
		req.RequestID = rabbitmq.LastLevel(topic)
	}
	if req.RequestID == "" {
		req.RequestID = logging.NewRequestID()
	}

	if !r.seen.ShouldProcess(req.RequestID) {
		metrics.MQTTMessages.WithLabelValues("duplicate").Inc()
		r.log.Debug().Str("request_id", req.RequestID).Msg("duplicate request dropped")
		return nil
	}

	ctx = logging.ContextWithRequestID(ctx, req.RequestID)
	start := time.Now()
	in := InputFromRequest(req)
	rep, err := r.svc.Calculate(ctx, in)
	r.svc.observe(ctx, transportMQTT, in, start, rep, err)

	res := messages.CalculationResult{RequestID: req.RequestID, Status: messages.StatusOK}
	if err != nil {
		res.Status = messages.StatusFail
		res.Code = ErrorCode(err)
		res.Reason = err.Error()
		if res.Code == CodeInternal {
			res.Reason = "internal error"
		}
	} else {
		raw, merr := json.Marshal(rep)
		if merr != nil {
			res.Status = messages.StatusFail
			res.Code = CodeInternal
			res.Reason = "internal error"
		} else {
			res.Report = raw
		}
	}

	if err := r.reply(res); err != nil {
		// Let a redelivery try again.
		r.seen.Forget(req.RequestID)
		return err
	}
	metrics.MQTTMessages.WithLabelValues("handled").Inc()
	return nil
}

func (r *Responder) reply(res messages.CalculationResult) error {
	res.Timestamp = r.now().UTC()
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	topic := rabbitmq.FormatTopic(r.resultTopic, res.RequestID)
	if err := r.publisher.Publish(topic, payload); err != nil {
		metrics.MQTTMessages.WithLabelValues("publish_error").Inc()
		return err
	}
	return nil
}
