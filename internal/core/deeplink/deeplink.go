// Package deeplink formats the provider URIs for a trip.
//
// Everything here is pure: coordinates are passed in already resolved and a nil
// coordinate means "unresolved". A URI either carries both coordinates or
// neither, never one coordinate next to one address.
package deeplink

import (
	"net/url"
	"strings"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/rounding"
)

// Schemes configures where each provider's links point.
type Schemes struct {
	Uber string // e.g. "uber"
	Bolt string // e.g. "bolt"

	// BoltWeb is the web base such as "https://bolt.eu". Empty disables the web link.
	BoltWeb string
}

// DefaultSchemes are the production app schemes.
var DefaultSchemes = Schemes{
	Uber:    "uber",
	Bolt:    "bolt",
	BoltWeb: "https://bolt.eu",
}

// Builder formats deep links for a fixed set of schemes.
type Builder struct {
	schemes Schemes
}

// NewBuilder creates a Builder.
func NewBuilder(schemes Schemes) *Builder {
	schemes.BoltWeb = strings.TrimRight(schemes.BoltWeb, "/")
	return &Builder{schemes: schemes}
}

// Build formats every link for the trip.
func (b *Builder) Build(pickup, dropoff string, pickupCoords, dropoffCoords *domain.GeoPoint) domain.DeepLinkSet {
	set := domain.DeepLinkSet{
		Uber:        b.Uber(pickup, dropoff),
		Bolt:        b.Bolt(pickup, dropoff, pickupCoords, dropoffCoords),
		BoltWeb:     b.BoltWeb(pickup, dropoff, pickupCoords, dropoffCoords),
		Coordinates: pickupCoords != nil && dropoffCoords != nil,
	}
	return set
}

// Uber returns the address-only Uber link. The scheme has no coordinate fields.
func (b *Builder) Uber(pickup, dropoff string) string {
	return b.schemes.Uber + "://?action=setPickup" +
		"&pickup[formatted_address]=" + Encode(pickup) +
		"&dropoff[formatted_address]=" + Encode(dropoff)
}

// Bolt returns the native Bolt link.
func (b *Builder) Bolt(pickup, dropoff string, pickupCoords, dropoffCoords *domain.GeoPoint) string {
	return b.schemes.Bolt + "://ride?" + rideQuery(pickup, dropoff, pickupCoords, dropoffCoords)
}

// BoltWeb returns the web Bolt link, or "" when no web base is configured.
// The native link opens the app but may ignore the destination; the web link
// sets both ends.
func (b *Builder) BoltWeb(pickup, dropoff string, pickupCoords, dropoffCoords *domain.GeoPoint) string {
	if b.schemes.BoltWeb == "" {
		return ""
	}
	return b.schemes.BoltWeb + "/ride/?" + rideQuery(pickup, dropoff, pickupCoords, dropoffCoords)
}

func rideQuery(pickup, dropoff string, pickupCoords, dropoffCoords *domain.GeoPoint) string {
	if pickupCoords == nil || dropoffCoords == nil {
		return "pickup=" + Encode(pickup) + "&destination=" + Encode(dropoff)
	}
	return "pickup_lat=" + rounding.Coordinate(pickupCoords.Lat) +
		"&pickup_lng=" + rounding.Coordinate(pickupCoords.Lon) +
		"&destination_lat=" + rounding.Coordinate(dropoffCoords.Lat) +
		"&destination_lng=" + rounding.Coordinate(dropoffCoords.Lon)
}

// Encode form-encodes s: spaces become '+', everything outside
// [A-Za-z0-9-_.~] becomes %XX per UTF-8 byte.
func Encode(s string) string {
	return url.QueryEscape(s)
}
