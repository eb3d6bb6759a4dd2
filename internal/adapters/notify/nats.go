package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/okian/taskmatch/internal/domain/model"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
}

// NATSPublisher publishes events on subject.<event type>.
type NATSPublisher struct {
	conn    Conn
	subject string
}

// DialNATS connects to url and publishes under subject.
func DialNATS(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("nats: subject is required")
	}
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name("taskmatch"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return NewNATSPublisher(nc, subject), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(c Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject}
}

// Subject returns the subject an event of type t is published on.
func (p *NATSPublisher) Subject(t model.EventType) string {
	return p.subject + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, e model.TaskEvent) error { //nolint:gocritic // hugeParam: events are passed by value
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(e)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.Subject(e.Type))
	msg.Data = b
	msg.Header.Set(nats.MsgIdHdr, e.ID)
	msg.Header.Set("Task-Id", e.TaskID)
	return p.conn.PublishMsg(msg)
}

func (p *NATSPublisher) Driver() string { return DriverNATS }
func (p *NATSPublisher) Close() error   { return p.conn.Drain() }
