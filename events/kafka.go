package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// ErrBufferFull is returned when the producer cannot take another message
// without blocking, e.g. while every broker is down.
var ErrBufferFull = errors.New("kafka producer buffer full")

// KafkaPublisher hands events to an async producer. Publish never waits on
// the brokers; delivery failures are logged from the producer's error channel.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *logrus.Logger
	drained  sync.WaitGroup
}

func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.Timeout = 5 * time.Second
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer starts draining the producer's errors. The
// producer must be configured with Producer.Return.Successes off.
func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string, logger *logrus.Logger) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic, logger: logger}
	p.drained.Add(1)
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer p.drained.Done()
	for perr := range p.producer.Errors() {
		fields := logrus.Fields{"topic": p.topic}
		if perr.Msg != nil {
			if key, err := perr.Msg.Key.Encode(); err == nil {
				fields["order_id"] = string(key)
			}
			for _, h := range perr.Msg.Headers {
				if string(h.Key) == "event-type" {
					fields["type"] = string(h.Value)
				}
			}
		}
		p.logger.WithError(perr.Err).WithFields(fields).Error("kafka delivery failed")
	}
}

// Publish queues the event keyed by order id so one order's events stay in
// one partition. It fails fast with ErrBufferFull instead of blocking.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.OrderID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(e.Type)},
		},
	}

	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("publish %s: %w", e.Type, ErrBufferFull)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":    p.topic,
		"order_id": e.OrderID,
		"type":     e.Type,
	}).Debug("event queued for kafka")
	return nil
}

// Close flushes queued messages and returns once every delivery failure has
// been logged.
func (p *KafkaPublisher) Close() error {
	p.producer.AsyncClose()
	p.drained.Wait()
	return nil
}
