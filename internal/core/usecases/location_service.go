package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/core/ports"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
	"github.com/samirrijal/ridecompare/internal/pkg/rounding"
)

// LocationService resolves addresses and device positions.
type LocationService struct {
	geocoder        ports.Geocoder
	location        ports.LocationProvider
	geocodeTimeout  time.Duration
	locationTimeout time.Duration
}

// NewLocationService creates a new LocationService. A zero timeout leaves the
// corresponding call bounded only by the caller's context.
func NewLocationService(
	geocoder ports.Geocoder,
	location ports.LocationProvider,
	geocodeTimeout, locationTimeout time.Duration,
) *LocationService {
	return &LocationService{
		geocoder:        geocoder,
		location:        location,
		geocodeTimeout:  geocodeTimeout,
		locationTimeout: locationTimeout,
	}
}

// ForwardGeocode returns the first match for address rounded to six decimals,
// or nil when the address is empty, nothing matches, or the lookup fails.
func (s *LocationService) ForwardGeocode(ctx context.Context, address string) *domain.GeoPoint {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	start := time.Now()
	points, err := s.geocoder.Forward(ctx, address)
	metrics.GeocodeDuration.WithLabelValues("forward").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		slog.WarnContext(ctx, "forward geocoding failed", "address", address, "error", err)
		return nil
	}
	if len(points) == 0 {
		metrics.GeocodeRequests.WithLabelValues("forward", "no_match").Inc()
		slog.InfoContext(ctx, "no geocode result", "address", address)
		return nil
	}

	first := points[0]
	if !first.Valid() {
		metrics.GeocodeRequests.WithLabelValues("forward", "invalid").Inc()
		slog.WarnContext(ctx, "geocoder returned invalid coordinate", "address", address, "lat", first.Lat, "lon", first.Lon)
		return nil
	}

	metrics.GeocodeRequests.WithLabelValues("forward", "ok").Inc()
	return &domain.GeoPoint{
		Lat: rounding.Round(first.Lat, rounding.CoordinateScale),
		Lon: rounding.Round(first.Lon, rounding.CoordinateScale),
	}
}

// ReverseGeocode returns the first non-empty address line for point.
func (s *LocationService) ReverseGeocode(ctx context.Context, point domain.GeoPoint) (string, bool) {
	ctx, cancel := withTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	start := time.Now()
	lines, err := s.geocoder.Reverse(ctx, point)
	metrics.GeocodeDuration.WithLabelValues("reverse").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		slog.WarnContext(ctx, "reverse geocoding failed", "lat", point.Lat, "lon", point.Lon, "error", err)
		return "", false
	}

	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			metrics.GeocodeRequests.WithLabelValues("reverse", "ok").Inc()
			return line, true
		}
	}

	metrics.GeocodeRequests.WithLabelValues("reverse", "no_match").Inc()
	slog.InfoContext(ctx, "no reverse geocode result", "lat", point.Lat, "lon", point.Lon)
	return "", false
}

// CurrentLocation asks the device for a high-accuracy fix. Missing permission
// is checked first and reported as domain.ErrPermissionDenied; every other
// failure is domain.ErrLocationUnavailable.
func (s *LocationService) CurrentLocation(ctx context.Context, deviceID string) (domain.GeoPoint, error) {
	if !s.location.HasLocationPermission(deviceID) {
		return domain.GeoPoint{}, domain.ErrPermissionDenied
	}

	lctx, cancel := withTimeout(ctx, s.locationTimeout)
	defer cancel()

	point, err := s.location.CurrentPosition(lctx, deviceID, domain.PriorityHighAccuracy)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return domain.GeoPoint{}, domain.ErrPermissionDenied
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.GeoPoint{}, ctxErr
		}
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	if !point.Valid() {
		return domain.GeoPoint{}, fmt.Errorf("%w: invalid fix %v,%v", domain.ErrLocationUnavailable, point.Lat, point.Lon)
	}
	return point, nil
}

// DeviceLocation returns the device fix together with a display address. When
// reverse geocoding finds nothing the address is a "Lat: …, Lng: …" label.
func (s *LocationService) DeviceLocation(ctx context.Context, deviceID string) (domain.GeoPoint, string, error) {
	point, err := s.CurrentLocation(ctx, deviceID)
	if err != nil {
		return domain.GeoPoint{}, "", err
	}
	address, ok := s.ReverseGeocode(ctx, point)
	if !ok {
		address = CoordinateLabel(point)
	}
	return point, address, nil
}

// CoordinateLabel is the pickup text used when a fix has no known address.
func CoordinateLabel(p domain.GeoPoint) string {
	return "Lat: " + strconv.FormatFloat(p.Lat, 'f', -1, 64) +
		", Lng: " + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
