package ports

import (
	"context"
	"time"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// Geocoder translates between free text and coordinates.
// Both calls may return an empty slice when nothing matches.
type Geocoder interface {
	Forward(ctx context.Context, address string) ([]domain.GeoPoint, error)
	Reverse(ctx context.Context, point domain.GeoPoint) ([]string, error)
}

// LocationProvider reaches a device's location service.
type LocationProvider interface {
	// HasLocationPermission must not block.
	HasLocationPermission(deviceID string) bool
	CurrentPosition(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error)
}

// AppCatalog answers which apps a device has installed.
type AppCatalog interface {
	IsInstalled(deviceID, appID string) bool
}

// URILauncher opens a URI on a device.
type URILauncher interface {
	Open(ctx context.Context, deviceID, uri string) error
}

// SessionStore keeps form sessions for a limited time.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SessionEvents fans session snapshots out to observers.
type SessionEvents interface {
	PublishSession(ctx context.Context, session *domain.Session) error
}
