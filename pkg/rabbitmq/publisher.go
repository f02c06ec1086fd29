package rabbitmq

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds the wait for a QoS 1/2 acknowledgement.
const publishTimeout = 10 * time.Second

type IPublisher interface {
	Publish(topic string, payload []byte) error
}

// Publisher sends to any topic with a fixed QoS.
type Publisher struct {
	client   mqtt.Client
	qos      byte
	retained bool
}

func NewPublisher(client mqtt.Client, qos byte, retained bool) *Publisher {
	return &Publisher{client: client, qos: qos, retained: retained}
}

func (p *Publisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
