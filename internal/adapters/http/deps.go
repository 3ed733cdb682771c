package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridecompare/internal/core/usecases"
)

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Locations *usecases.LocationService
	Compare   *usecases.CompareService
	Sessions  *usecases.SessionService

	NATS  *nats.Conn // nil disables /ws and the nats readiness check
	Store Pinger

	Version        string
	DocsPath       string        // defaults to api/openapi.yaml
	RequestTimeout time.Duration // defaults to 15s
	RateLimit      int           // requests per minute per IP, defaults to 120
}
