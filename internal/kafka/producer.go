package kafka

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/ecommerce-saga/go-order-saga/internal/metrics"
)

// Producer wraps an async kafka.Writer behind a buffered inbox so handlers
// never block on the broker. Send failures are logged and the event is lost;
// that is the delivery contract of this pipeline (no outbox, no retry).
type Producer struct {
	w       *kafka.Writer
	topic   string
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		topic:   topic,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the send loop until Close is called, then flushes whatever is
// still buffered and releases WaitClosed.
func (p *Producer) Start() {
	go func() {
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				log.Error().Err(err).Str("topic", p.topic).Msg("kafka write failed, event lost")
			}
		}
		_ = p.w.Close()
		close(p.closeCh)
	}()
}

// Publish enqueues a message. A nil key publishes unkeyed.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	metrics.EventsPublished.WithLabelValues(p.topic).Inc()
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close stops accepting messages; the send loop drains what is buffered.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the send loop has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
