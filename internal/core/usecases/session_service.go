package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/core/ports"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
)

// SessionService owns the form state of each compare session. Every change
// goes through SetPickup, SetDropoff or SetUsingDeviceLocation, which replace
// the stored snapshot as a whole.
type SessionService struct {
	store     ports.SessionStore
	events    ports.SessionEvents
	locations *LocationService
	ttl       time.Duration
	now       func() time.Time
	locks     keyedMutex
}

// NewSessionService creates a new SessionService. events may be nil.
func NewSessionService(
	store ports.SessionStore,
	events ports.SessionEvents,
	locations *LocationService,
	ttl time.Duration,
) *SessionService {
	return &SessionService{
		store:     store,
		events:    events,
		locations: locations,
		ttl:       ttl,
		now:       time.Now,
		locks:     keyedMutex{locks: make(map[string]*refLock)},
	}
}

// Create starts an empty session for a device.
func (s *SessionService) Create(ctx context.Context, deviceID string) (*domain.Session, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device_id required", domain.ErrValidation)
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.publish(ctx, session)
	return session, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// SetPickup replaces the pickup text. Any device coordinate is cleared with it.
func (s *SessionService) SetPickup(ctx context.Context, id, text string) (*domain.Session, error) {
	return s.update(ctx, id, -1, "pickup", func(t domain.TripRequest) domain.TripRequest {
		return t.WithPickup(text)
	})
}

// SetDropoff replaces the dropoff text.
func (s *SessionService) SetDropoff(ctx context.Context, id, text string) (*domain.Session, error) {
	return s.update(ctx, id, -1, "dropoff", func(t domain.TripRequest) domain.TripRequest {
		return t.WithDropoff(text)
	})
}

// SetUsingDeviceLocation stores a device fix and its address as the pickup.
func (s *SessionService) SetUsingDeviceLocation(ctx context.Context, id string, point domain.GeoPoint, address string) (*domain.Session, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("%w: coordinate out of range", domain.ErrValidation)
	}
	return s.update(ctx, id, -1, "device_location", func(t domain.TripRequest) domain.TripRequest {
		return t.WithDeviceLocation(point, address)
	})
}

// UseDeviceLocation fills the pickup from the device. When fix is nil the
// position is requested from the device; otherwise the client-supplied fix is
// only reverse geocoded. The result is discarded with domain.ErrStaleUpdate
// if the session was edited while the lookup was running.
func (s *SessionService) UseDeviceLocation(ctx context.Context, id string, fix *domain.GeoPoint) (*domain.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		point   domain.GeoPoint
		address string
	)
	if fix != nil {
		if !fix.Valid() {
			return nil, fmt.Errorf("%w: coordinate out of range", domain.ErrValidation)
		}
		point = *fix
		var ok bool
		if address, ok = s.locations.ReverseGeocode(ctx, point); !ok {
			address = CoordinateLabel(point)
		}
	} else {
		point, address, err = s.locations.DeviceLocation(ctx, session.DeviceID)
		if err != nil {
			return nil, err
		}
	}

	return s.update(ctx, id, session.Version, "device_location", func(t domain.TripRequest) domain.TripRequest {
		return t.WithDeviceLocation(point, address)
	})
}

// update applies fn to the stored trip. A non-negative expectVersion makes the
// update fail with domain.ErrStaleUpdate when the session moved on.
func (s *SessionService) update(
	ctx context.Context,
	id string,
	expectVersion int64,
	field string,
	fn func(domain.TripRequest) domain.TripRequest,
) (*domain.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectVersion >= 0 && current.Version != expectVersion {
		return nil, domain.ErrStaleUpdate
	}

	next := *current
	next.Trip = fn(current.Trip)
	next.Version = current.Version + 1
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, &next, s.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.SessionUpdates.WithLabelValues(field).Inc()
	s.publish(ctx, &next)
	return &next, nil
}

func (s *SessionService) publish(ctx context.Context, session *domain.Session) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSession(ctx, session); err != nil {
		slog.WarnContext(ctx, "publish session snapshot failed", "session_id", session.ID, "error", err)
	}
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
