package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
)

// Handler processes one message. topic is the concrete topic the message
// arrived on, which matters for wildcard subscriptions.
type Handler func(topic string, message mqtt.Message) error

type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(handler Handler)
}

// Consumer subscribes one topic filter.
type Consumer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	handler Handler
	log     zerolog.Logger
}

func NewConsumer(client mqtt.Client, topic string, qos byte, handler Handler) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		qos:     qos,
		handler: handler,
		log:     logging.With("mqtt"),
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

func (c *Consumer) deliver(_ mqtt.Client, message mqtt.Message) {
	if c.handler == nil {
		c.log.Warn().Str("topic", c.topic).Msg("no handler set")
		return
	}
	if err := c.handler(message.Topic(), message); err != nil {
		c.log.Error().Err(err).Str("topic", message.Topic()).Msg("error handling message")
	}
}

// ConsumeMessage subscribes and blocks until ctx is done, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	if c.handler == nil {
		return errors.New("consumer has no handler")
	}
	token := c.client.Subscribe(c.topic, c.qos, c.deliver)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, token.Error())
	}
	c.log.Info().Str("topic", c.topic).Uint8("qos", c.qos).Msg("subscribed")

	<-ctx.Done()

	c.client.Unsubscribe(c.topic).Wait()
	return nil
}
