package simulator

import (
	"context"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/plantcare/pkg/rabbitmq"
)

type fakePublisher struct {
	mu        sync.Mutex
	topics    []string
	payloads  [][]byte
	onPublish func(topic string, payload []byte)
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	cb := p.onPublish
	p.mu.Unlock()
	if cb != nil {
		cb(topic, payload)
	}
	return nil
}

type fakeConsumer struct {
	mu      sync.Mutex
	handler rabbitmq.Handler
}

func (c *fakeConsumer) SetHandler(h rabbitmq.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *fakeConsumer) ConsumeMessage(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (c *fakeConsumer) deliver(topic string, payload []byte) error {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	return h(topic, message{topic: topic, payload: payload})
}

type message struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m message) Topic() string   { return m.topic }
func (m message) Payload() []byte { return m.payload }
