package notify

import (
	"checksheet-backend/internal/domain/event"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes record lifecycle events on
// <prefix>.<event type>, e.g. checksheet.record.submitted.
type NATSPublisher struct {
	conn   Conn
	prefix string
	log    zerolog.Logger
}

var _ event.Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(conn Conn, prefix string, log zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}
}

func (p *NATSPublisher) Subject(t event.Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, e event.Event) error {
	if p.conn == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := p.Subject(e.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.log.Debug().
		Str("subject", subject).
		Str("record_id", e.RecordID).
		Msg("notification: event published")
	return nil
}
