// Package notify publishes task lifecycle events to external subscribers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/logger"
)

// Supported publisher drivers.
const (
	DriverLog   = "log"
	DriverKafka = "kafka"
	DriverNATS  = "nats"
	DriverNone  = "none"
)

// ErrUnknownDriver is returned by New for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown notify driver")

// Publisher delivers a single event to its destination.
type Publisher interface {
	Publish(ctx context.Context, e model.TaskEvent) error
	Driver() string
	Close() error
}

// Config selects and configures a publisher.
type Config struct {
	Driver       string
	KafkaBrokers []string
	KafkaTopic   string
	NATSURL      string
	NATSSubject  string
}

// New builds the publisher named by cfg.Driver.
func New(cfg Config) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverLog:
		return NewLogPublisher(logger.Named("notify")), nil
	case DriverNone:
		return Nop{}, nil
	case DriverKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case DriverNATS:
		return DialNATS(cfg.NATSURL, cfg.NATSSubject)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func encode(e model.TaskEvent) ([]byte, error) { //nolint:gocritic // hugeParam: events are passed by value
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return b, nil
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	log logger.Logger
}

// NewLogPublisher returns a publisher that logs every event at info level.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	return &LogPublisher{log: l}
}

func (p *LogPublisher) Publish(ctx context.Context, e model.TaskEvent) error { //nolint:gocritic // hugeParam: events are passed by value
	p.log.Info(ctx, "task event",
		logger.String("event_id", e.ID),
		logger.String("type", string(e.Type)),
		logger.String("task_id", e.TaskID),
		logger.String("worker_id", e.WorkerID),
		logger.String("previous_worker_id", e.PreviousWorkerID),
		logger.String("status", string(e.Status)),
	)
	return nil
}

func (p *LogPublisher) Driver() string { return DriverLog }
func (p *LogPublisher) Close() error   { return nil }

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, model.TaskEvent) error { return nil } //nolint:gocritic // hugeParam
func (Nop) Driver() string                                 { return DriverNone }
func (Nop) Close() error                                   { return nil }

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
