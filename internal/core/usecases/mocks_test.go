package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	forwardFn func(ctx context.Context, address string) ([]domain.GeoPoint, error)
	reverseFn func(ctx context.Context, point domain.GeoPoint) ([]string, error)
}

func (m *mockGeocoder) Forward(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	if m.forwardFn != nil {
		return m.forwardFn(ctx, address)
	}
	return nil, nil
}

func (m *mockGeocoder) Reverse(ctx context.Context, point domain.GeoPoint) ([]string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, point)
	}
	return nil, nil
}

// tableGeocoder answers forward lookups from a fixed map.
func tableGeocoder(known map[string]domain.GeoPoint) *mockGeocoder {
	return &mockGeocoder{
		forwardFn: func(ctx context.Context, address string) ([]domain.GeoPoint, error) {
			if p, ok := known[address]; ok {
				return []domain.GeoPoint{p}, nil
			}
			return nil, nil
		},
	}
}

// --- Mock LocationProvider ---

type mockLocation struct {
	denied     bool
	positionFn func(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error)
}

func (m *mockLocation) HasLocationPermission(deviceID string) bool { return !m.denied }

func (m *mockLocation) CurrentPosition(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error) {
	if m.positionFn != nil {
		return m.positionFn(ctx, deviceID, priority)
	}
	return domain.GeoPoint{}, domain.ErrLocationUnavailable
}

// --- Mock AppCatalog ---

type mockApps struct {
	installed map[string]bool
}

func (m *mockApps) IsInstalled(deviceID, appID string) bool { return m.installed[appID] }

func allInstalled() *mockApps {
	return &mockApps{installed: map[string]bool{"com.ubercab": true, "ee.mtakso.client": true}}
}

// --- Mock URILauncher ---

type openCall struct {
	uri string
	at  time.Time
}

type mockLauncher struct {
	mu     sync.Mutex
	calls  []openCall
	openFn func(ctx context.Context, deviceID, uri string) error
}

func (m *mockLauncher) Open(ctx context.Context, deviceID, uri string) error {
	m.mu.Lock()
	m.calls = append(m.calls, openCall{uri: uri, at: time.Now()})
	m.mu.Unlock()
	if m.openFn != nil {
		return m.openFn(ctx, deviceID, uri)
	}
	return nil
}

func (m *mockLauncher) opened() []openCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]openCall(nil), m.calls...)
}

// --- Mock SessionStore ---

type mockStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saves    int
}

func newMockStore() *mockStore {
	return &mockStore{sessions: make(map[string]domain.Session)}
}

func (m *mockStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m *mockStore) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	m.saves++
	return nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// --- Mock SessionEvents ---

type mockEvents struct {
	mu        sync.Mutex
	published []domain.Session
}

func (m *mockEvents) PublishSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, *session)
	return nil
}

func (m *mockEvents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}
