package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/core/usecases"
)

func newSessionService(store *mockStore, events *mockEvents, geo *mockGeocoder, loc *mockLocation) *usecases.SessionService {
	locations := usecases.NewLocationService(geo, loc, time.Second, time.Second)
	if events == nil {
		return usecases.NewSessionService(store, nil, locations, time.Hour)
	}
	return usecases.NewSessionService(store, events, locations, time.Hour)
}

func TestSessionService_Create(t *testing.T) {
	store := newMockStore()
	events := &mockEvents{}
	svc := newSessionService(store, events, &mockGeocoder{}, &mockLocation{})

	s, err := svc.Create(context.Background(), " dev-1 ")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "dev-1", s.DeviceID)
	assert.Zero(t, s.Version)

	_, err = store.Get(context.Background(), s.ID)
	assert.NoError(t, err, "session not stored")
	assert.Equal(t, 1, events.count())
}

func TestSessionService_Create_RequiresDevice(t *testing.T) {
	svc := newSessionService(newMockStore(), nil, &mockGeocoder{}, &mockLocation{})

	_, err := svc.Create(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSessionService_SetPickupClearsDevicePoint(t *testing.T) {
	store := newMockStore()
	svc := newSessionService(store, nil, &mockGeocoder{}, &mockLocation{})
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")
	s, err := svc.SetUsingDeviceLocation(ctx, s.ID, domain.GeoPoint{Lat: 40.7, Lon: -73.9}, "Broadway")
	require.NoError(t, err)
	require.True(t, s.Trip.UsingDeviceLocation(), "device location not applied: %+v", s.Trip)
	require.Equal(t, "Broadway", s.Trip.PickupText)

	s, err = svc.SetPickup(ctx, s.ID, "Times Square")
	require.NoError(t, err)
	assert.False(t, s.Trip.UsingDeviceLocation(), "editing the pickup must clear the device point")
	assert.EqualValues(t, 2, s.Version)
}

func TestSessionService_SetDropoffKeepsDevicePoint(t *testing.T) {
	svc := newSessionService(newMockStore(), nil, &mockGeocoder{}, &mockLocation{})
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")
	s, _ = svc.SetUsingDeviceLocation(ctx, s.ID, domain.GeoPoint{Lat: 40.7, Lon: -73.9}, "Broadway")
	s, err := svc.SetDropoff(ctx, s.ID, "Central Park")
	require.NoError(t, err)
	assert.True(t, s.Trip.UsingDeviceLocation())
	assert.Equal(t, "Central Park", s.Trip.DropoffText)
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc := newSessionService(newMockStore(), nil, &mockGeocoder{}, &mockLocation{})

	_, err := svc.SetDropoff(context.Background(), "missing", "x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_UseDeviceLocation_FromDevice(t *testing.T) {
	loc := &mockLocation{positionFn: func(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 59.437, Lon: 24.7536}, nil
	}}
	svc := newSessionService(newMockStore(), nil, &mockGeocoder{}, loc)
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")
	s, err := svc.UseDeviceLocation(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Lat: 59.437, Lng: 24.7536", s.Trip.PickupText)
	require.NotNil(t, s.Trip.PickupPoint)
	assert.Equal(t, 59.437, s.Trip.PickupPoint.Lat)
}

func TestSessionService_UseDeviceLocation_ClientFix(t *testing.T) {
	geo := &mockGeocoder{reverseFn: func(ctx context.Context, point domain.GeoPoint) ([]string, error) {
		return []string{"Vabaduse väljak, Tallinn"}, nil
	}}
	loc := &mockLocation{positionFn: func(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error) {
		assert.Fail(t, "device must not be asked when the client sends a fix")
		return domain.GeoPoint{}, nil
	}}
	svc := newSessionService(newMockStore(), nil, geo, loc)
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")
	s, err := svc.UseDeviceLocation(ctx, s.ID, &domain.GeoPoint{Lat: 59.4339, Lon: 24.7441})
	require.NoError(t, err)
	assert.Equal(t, "Vabaduse väljak, Tallinn", s.Trip.PickupText)
}

func TestSessionService_UseDeviceLocation_PermissionDenied(t *testing.T) {
	store := newMockStore()
	svc := newSessionService(store, nil, &mockGeocoder{}, &mockLocation{denied: true})
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")
	s, _ = svc.SetPickup(ctx, s.ID, "typed by hand")

	_, err := svc.UseDeviceLocation(ctx, s.ID, nil)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	got, _ := store.Get(ctx, s.ID)
	assert.Equal(t, "typed by hand", got.Trip.PickupText)
	assert.Equal(t, s.Version, got.Version, "session must be unchanged")
}

func TestSessionService_UseDeviceLocation_StaleResultDiscarded(t *testing.T) {
	fixRequested := make(chan struct{})
	releaseFix := make(chan struct{})
	loc := &mockLocation{positionFn: func(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error) {
		close(fixRequested)
		<-releaseFix
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	store := newMockStore()
	svc := newSessionService(store, nil, &mockGeocoder{}, loc)
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")

	var wg sync.WaitGroup
	var useErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, useErr = svc.UseDeviceLocation(ctx, s.ID, nil)
	}()

	<-fixRequested
	_, err := svc.SetPickup(ctx, s.ID, "typed while waiting")
	require.NoError(t, err)
	close(releaseFix)
	wg.Wait()

	assert.ErrorIs(t, useErr, domain.ErrStaleUpdate)
	got, _ := store.Get(ctx, s.ID)
	assert.Equal(t, "typed while waiting", got.Trip.PickupText, "late fix overwrote the user's edit")
	assert.False(t, got.Trip.UsingDeviceLocation())
}

func TestSessionService_ConcurrentUpdatesSerialized(t *testing.T) {
	store := newMockStore()
	svc := newSessionService(store, nil, &mockGeocoder{}, &mockLocation{})
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.SetDropoff(ctx, s.ID, "Central Park")
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, s.ID)
	assert.EqualValues(t, n, got.Version)
}

func TestSessionService_Delete(t *testing.T) {
	svc := newSessionService(newMockStore(), nil, &mockGeocoder{}, &mockLocation{})
	ctx := context.Background()

	s, _ := svc.Create(ctx, "dev-1")
	require.NoError(t, svc.Delete(ctx, s.ID))

	_, err := svc.Get(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
