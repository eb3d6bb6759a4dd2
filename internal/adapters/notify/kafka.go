package notify

import (
	"context"
	"errors"
	"time"

	"github.com/okian/taskmatch/internal/domain/model"
	kgo "github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 3 * time.Second

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by task id.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaPublisher connects a writer to brokers for topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.Hash{},
		RequiredAcks: kgo.RequireOne,
	}
	return NewKafkaPublisherWithWriter(w), nil
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: kafkaWriteTimeout}
}

// Publish keys the message by task id so events of one task stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e model.TaskEvent) error { //nolint:gocritic // hugeParam: events are passed by value
	b, err := encode(e)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(e.TaskID),
		Value: b,
		Time:  e.At,
		Headers: []kgo.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
}

func (p *KafkaPublisher) Driver() string { return DriverKafka }
func (p *KafkaPublisher) Close() error   { return p.writer.Close() }
