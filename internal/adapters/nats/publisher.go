package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/telemetry"
)

// SessionStream keeps the latest snapshot of every session.
const SessionStream = "RIDECOMPARE_SESSIONS"

// Publisher implements ports.SessionEvents using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher enables JetStream on conn and makes sure the session stream
// exists. The stream keeps only the latest snapshot per session.
func NewPublisher(conn *nats.Conn, maxAge time.Duration) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:              SessionStream,
		Subjects:          []string{SessionPrefix + ">"},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		MaxAge:            maxAge,
		Storage:           nats.MemoryStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSession publishes the session snapshot on its state subject.
func (p *Publisher) PublishSession(ctx context.Context, session *domain.Session) error {
	ctx, span := telemetry.Tracer().Start(ctx, "session.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(telemetry.AttrSessionID.String(session.ID)),
	)
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if _, err = p.js.Publish(SessionSubject(session.ID), data, nats.Context(ctx)); err != nil {
		span.RecordError(err)
	}
	return err
}

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
