package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/ridecompare/internal/core/deeplink"
	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/core/ports"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
)

// AppIDs are the platform package identifiers of the compared apps.
type AppIDs struct {
	Uber string
	Bolt string
}

// DefaultAppIDs are the Android package names of the production apps.
var DefaultAppIDs = AppIDs{Uber: "com.ubercab", Bolt: "ee.mtakso.client"}

// CompareService resolves a trip into deep links and launches them.
type CompareService struct {
	locations *LocationService
	builder   *deeplink.Builder
	apps      ports.AppCatalog
	appIDs    AppIDs
	launcher  *SplitScreenLauncher
	preferWeb bool
}

// NewCompareService creates a new CompareService.
func NewCompareService(
	locations *LocationService,
	builder *deeplink.Builder,
	apps ports.AppCatalog,
	appIDs AppIDs,
	launcher *SplitScreenLauncher,
	preferWeb bool,
) *CompareService {
	return &CompareService{
		locations: locations,
		builder:   builder,
		apps:      apps,
		appIDs:    appIDs,
		launcher:  launcher,
		preferWeb: preferWeb,
	}
}

// BuildLinks resolves the trip's coordinates and formats every link.
//
// A stored pickup point is used as is; otherwise pickup and dropoff are
// geocoded concurrently. Geocoding failures only switch Bolt to the address
// format. The only error is the caller's context ending, in which case the
// partial results are discarded.
func (s *CompareService) BuildLinks(ctx context.Context, trip domain.TripRequest) (domain.DeepLinkSet, error) {
	var pickupCoords, dropoffCoords *domain.GeoPoint

	g, gctx := errgroup.WithContext(ctx)
	if trip.PickupPoint != nil {
		p := *trip.PickupPoint
		pickupCoords = &p
	} else {
		g.Go(func() error {
			pickupCoords = s.locations.ForwardGeocode(gctx, trip.PickupText)
			return nil
		})
	}
	g.Go(func() error {
		dropoffCoords = s.locations.ForwardGeocode(gctx, trip.DropoffText)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.DeepLinkSet{}, fmt.Errorf("build links: %w", err)
	}

	links := s.builder.Build(trip.PickupText, trip.DropoffText, pickupCoords, dropoffCoords)
	if links.Coordinates {
		metrics.LinksBuilt.WithLabelValues("coordinates").Inc()
	} else {
		metrics.LinksBuilt.WithLabelValues("address").Inc()
		slog.InfoContext(ctx, "geocoding incomplete, using address link format",
			"pickup_resolved", pickupCoords != nil,
			"dropoff_resolved", dropoffCoords != nil,
		)
	}
	return links, nil
}

// Availability reports which of the two apps the device has installed.
func (s *CompareService) Availability(deviceID string) domain.AppAvailability {
	return domain.AppAvailability{
		UberInstalled: s.apps.IsInstalled(deviceID, s.appIDs.Uber),
		BoltInstalled: s.apps.IsInstalled(deviceID, s.appIDs.Bolt),
	}
}

// Compare validates the trip, checks both apps are installed, builds the
// links and launches them on the device in split-screen order.
func (s *CompareService) Compare(ctx context.Context, deviceID string, trip domain.TripRequest) (*domain.CompareResult, error) {
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	if avail := s.Availability(deviceID); !avail.Ready() {
		return nil, fmt.Errorf("%w: %s", domain.ErrAppsMissing, avail.MissingLabel())
	}

	links, err := s.BuildLinks(ctx, trip)
	if err != nil {
		return nil, err
	}

	launches, err := s.launcher.Launch(ctx, deviceID, links.LaunchOrder(s.preferWeb))
	if err != nil {
		return nil, err
	}

	return &domain.CompareResult{Links: links, Launches: launches}, nil
}
